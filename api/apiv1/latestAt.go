package apiv1

import (
	"context"
	"sort"

	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/latestat"
)

type latestAtRequest struct {
	EntityPath string             `json:"entity_path"`
	Timeline   string             `json:"timeline"`
	Kind       chunk.TimelineKind `json:"kind"`
	At         *int64             `json:"at"` // missing means the end of time
	Components []string           `json:"components"`
}

func (r *latestAtRequest) query() (chunk.LatestAtQuery, error) {
	tl, err := timeline(r.Timeline, r.Kind)
	if err != nil {
		return chunk.LatestAtQuery{}, err
	}
	at := chunk.TimeMax
	if r.At != nil {
		at = chunk.TimeInt(*r.At)
	}
	return chunk.NewLatestAtQuery(tl, at), nil
}

type ComponentResponse struct {
	Index  chunk.Index `json:"index"`
	Values []any       `json:"values"`
}

type LatestAtResponse struct {
	EntityPath    chunk.EntityPath                            `json:"entity_path"`
	CompoundIndex chunk.Index                                 `json:"compound_index"`
	ClearIndex    *chunk.Index                                `json:"clear_index"`
	Shadowed      []chunk.ComponentName                       `json:"shadowed"`
	Components    map[chunk.ComponentName]*ComponentResponse `json:"components"`
}

func newLatestAtResponse(results *latestat.Results) (*LatestAtResponse, error) {

	response := &LatestAtResponse{
		EntityPath:    results.EntityPath,
		CompoundIndex: results.CompoundIndex,
		ClearIndex:    results.ClearIndex,
		Shadowed:      append([]chunk.ComponentName{}, results.Shadowed...),
		Components:    map[chunk.ComponentName]*ComponentResponse{},
	}

	for _, name := range results.ComponentNames() {
		values, err := results.Get(name).ComponentAny(name, 0)
		if err != nil {
			return nil, err
		}
		index, _ := results.Index(name)
		response.Components[name] = &ComponentResponse{
			Index:  index,
			Values: values,
		}
	}

	return response, nil
}

func latestAt(ctx context.Context, input *latestAtRequest) (*LatestAtResponse, error) {

	s := GetServicer(ctx)

	query, err := input.query()
	if err != nil {
		return nil, err
	}

	results, err := s.LatestAt(query, chunk.EntityPath(input.EntityPath), componentNames(input.Components)...)
	if err != nil {
		return nil, err
	}

	return newLatestAtResponse(results)
}

type latestAtManyRequest struct {
	latestAtRequest
	EntityPaths []string `json:"entity_paths"`
}

type latestAtManyResponse struct {
	Results []*LatestAtResponse `json:"results"`
}

func latestAtMany(ctx context.Context, input *latestAtManyRequest) (*latestAtManyResponse, error) {

	s := GetServicer(ctx)

	query, err := input.query()
	if err != nil {
		return nil, err
	}

	entityPaths := make([]chunk.EntityPath, len(input.EntityPaths))
	for i, p := range input.EntityPaths {
		entityPaths[i] = chunk.EntityPath(p)
	}

	many, err := s.LatestAtMany(ctx, query, entityPaths, componentNames(input.Components)...)
	if err != nil {
		return nil, err
	}

	response := &latestAtManyResponse{
		Results: make([]*LatestAtResponse, 0, len(many)),
	}
	for _, results := range many {
		r, err := newLatestAtResponse(results)
		if err != nil {
			return nil, err
		}
		response.Results = append(response.Results, r)
	}
	sort.Slice(response.Results, func(i, j int) bool {
		return response.Results[i].EntityPath < response.Results[j].EntityPath
	})

	return response, nil
}
