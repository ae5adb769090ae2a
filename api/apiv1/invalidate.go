package apiv1

import (
	"context"
	"net/http"

	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/latestat"
)

type invalidateRequest struct {
	EntityPath string             `json:"entity_path"`
	Timeline   string             `json:"timeline"`
	Kind       chunk.TimelineKind `json:"kind"`
	Component  string             `json:"component"`
	Times      []int64            `json:"times"`
	Static     bool               `json:"static"` // also invalidate static data
}

func invalidate(ctx context.Context, w http.ResponseWriter, input *invalidateRequest) error {

	s := GetServicer(ctx)

	tl, err := timeline(input.Timeline, input.Kind)
	if err != nil {
		return err
	}

	times := make([]chunk.TimeInt, 0, len(input.Times)+1)
	for _, t := range input.Times {
		times = append(times, chunk.TimeInt(t))
	}
	if input.Static {
		times = append(times, chunk.TimeStatic)
	}

	err = s.Invalidate(latestat.CacheKey{
		EntityPath: chunk.EntityPath(input.EntityPath),
		Timeline:   tl,
		Component:  chunk.ComponentName(input.Component),
	}, times...)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
