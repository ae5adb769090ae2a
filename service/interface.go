package service

import (
	"context"
	"errors"

	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/latestat"
	"github.com/fulldump/latestat/store"
)

var (
	ErrEntityPathRequired = errors.New("entity path is required")
	ErrTimelineRequired   = errors.New("timeline is required")
	ErrComponentRequired  = errors.New("component is required")
)

// Row is one row to be written: the time of the row on each timeline (empty
// for static data) and one batch per component.
type Row struct {
	TimePoint chunk.TimePoint
	Cells     []chunk.Cell
}

type Stats struct {
	Store  store.Stats           `json:"store"`
	Cache  latestat.Stats        `json:"cache"`
	Caches []latestat.CacheStats `json:"caches"`
}

type Servicer interface {
	InsertRows(entityPath chunk.EntityPath, rows ...Row) ([]chunk.RowID, error)
	InsertChunk(c *chunk.Chunk) error
	LatestAt(query chunk.LatestAtQuery, entityPath chunk.EntityPath, components ...chunk.ComponentName) (*latestat.Results, error)
	LatestAtMany(ctx context.Context, query chunk.LatestAtQuery, entityPaths []chunk.EntityPath, components ...chunk.ComponentName) (map[chunk.EntityPath]*latestat.Results, error)
	Invalidate(key latestat.CacheKey, dataTimes ...chunk.TimeInt) error
	GarbageCollect(targetBytes uint64) int
	Stats() Stats
}
