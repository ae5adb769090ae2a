package apiv1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/service"
)

type rowRequest struct {
	// TimePoint maps timeline names to the time of the row. Empty means static.
	TimePoint  map[string]int64 `json:"time_point"`
	Components map[string][]any `json:"components"`
}

type insertRowsRequest struct {
	EntityPath    string                        `json:"entity_path"`
	TimelineKinds map[string]chunk.TimelineKind `json:"timeline_kinds"`
	Rows          []rowRequest                  `json:"rows"`
}

type insertRowsResponse struct {
	EntityPath chunk.EntityPath `json:"entity_path"`
	RowIDs     []chunk.RowID    `json:"row_ids"`
}

func insertRows(ctx context.Context, w http.ResponseWriter, input *insertRowsRequest) (*insertRowsResponse, error) {

	s := GetServicer(ctx)

	rows := make([]service.Row, 0, len(input.Rows))
	for i, r := range input.Rows {
		timepoint := chunk.TimePoint{}
		for name, t := range r.TimePoint {
			tl, err := timeline(name, input.TimelineKinds[name])
			if err != nil {
				return nil, err
			}
			timepoint[tl] = chunk.TimeInt(t)
		}

		cs, err := cells(r.Components)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		rows = append(rows, service.Row{TimePoint: timepoint, Cells: cs})
	}

	ids, err := s.InsertRows(chunk.EntityPath(input.EntityPath), rows...)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return &insertRowsResponse{
		EntityPath: chunk.NewEntityPath(input.EntityPath),
		RowIDs:     ids,
	}, nil
}
