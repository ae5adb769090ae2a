package latestat

import (
	"errors"
	"fmt"

	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/flatdeque"
	"github.com/fulldump/latestat/utils"
)

var ErrPrimaryComponentNotFound = errors.New("primary component not found")

// Results is the answer to a multi-component latest-at query on one entity.
type Results struct {
	EntityPath chunk.EntityPath

	// CompoundIndex is the most recent index among the returned components,
	// or chunk.IndexMin when there are none.
	CompoundIndex chunk.Index

	// ClearIndex is the most recent clear that applies to the entity.
	ClearIndex *chunk.Index

	// Shadowed lists the components older than ClearIndex. They are only
	// present in the results when clears are ignored.
	Shadowed []chunk.ComponentName

	components map[chunk.ComponentName]*chunk.Chunk
	indexes    map[chunk.ComponentName]chunk.Index
}

func newResults(entityPath chunk.EntityPath) *Results {
	return &Results{
		EntityPath:    entityPath,
		CompoundIndex: chunk.IndexMin,
		components:    map[chunk.ComponentName]*chunk.Chunk{},
		indexes:       map[chunk.ComponentName]chunk.Index{},
	}
}

func (r *Results) add(name chunk.ComponentName, unit *chunk.Chunk, index chunk.Index) {
	r.components[name] = unit
	r.indexes[name] = index
	r.CompoundIndex = chunk.MaxIndex(r.CompoundIndex, index)
}

func (r *Results) Len() int {
	return len(r.components)
}

func (r *Results) ComponentNames() []chunk.ComponentName {
	return utils.GetKeys(r.components)
}

func (r *Results) Contains(name chunk.ComponentName) bool {
	_, ok := r.components[name]
	return ok
}

// Get returns the unit chunk of a component or nil.
func (r *Results) Get(name chunk.ComponentName) *chunk.Chunk {
	return r.components[name]
}

func (r *Results) GetRequired(name chunk.ComponentName) (*chunk.Chunk, error) {
	unit, ok := r.components[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s at %s", ErrPrimaryComponentNotFound, name, r.EntityPath)
	}
	return unit, nil
}

// GetOrEmpty never returns nil: a missing component gives an empty chunk.
func (r *Results) GetOrEmpty(name chunk.ComponentName) *chunk.Chunk {
	if unit, ok := r.components[name]; ok {
		return unit
	}
	return chunk.Empty(r.EntityPath)
}

func (r *Results) Index(name chunk.ComponentName) (chunk.Index, bool) {
	index, ok := r.indexes[name]
	return index, ok
}

// ComponentBatch returns every instance of a component. Values stored with a
// different Go type are converted through their JSON form, which is how
// values logged over the HTTP api come back typed.
func ComponentBatch[T any](r *Results, name chunk.ComponentName) ([]T, error) {
	unit, err := r.GetRequired(name)
	if err != nil {
		return nil, err
	}

	values, err := chunk.ComponentBatch[T](unit, name, 0)
	if !errors.Is(err, chunk.ErrTypeMismatch) {
		return values, err
	}

	boxed, err := unit.ComponentAny(name, 0)
	if err != nil {
		return nil, err
	}
	converted := []T{}
	if err := utils.Remarshal(boxed, &converted); err != nil {
		return nil, fmt.Errorf("convert %s: %w", name, err)
	}
	return converted, nil
}

func ComponentInstance[T any](r *Results, name chunk.ComponentName, instance int) (T, error) {
	var zero T

	values, err := ComponentBatch[T](r, name)
	if err != nil {
		return zero, err
	}
	if instance < 0 || instance >= len(values) {
		return zero, fmt.Errorf("%w: instance %d of %s with %d instances", flatdeque.ErrOutOfBounds, instance, name, len(values))
	}
	return values[instance], nil
}
