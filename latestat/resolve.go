package latestat

import (
	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/store"
)

// resolve asks the store for the latest row of one component. Every
// candidate chunk contributes at most one row and the greatest index wins.
func resolve(s store.Store, key CacheKey, at chunk.TimeInt) (*chunk.Chunk, chunk.Index, bool) {
	query := chunk.NewLatestAtQuery(key.Timeline, at)

	var best *chunk.Chunk
	var bestIndex chunk.Index
	for _, candidate := range s.RelevantChunks(key.EntityPath, query, key.Component) {
		unit := s.LatestAtRow(candidate, query, key.Component)
		if unit == nil {
			continue
		}
		index, ok := unit.Index(key.Timeline)
		if !ok {
			continue
		}
		if best == nil || index.Compare(bestIndex) > 0 {
			best, bestIndex = unit, index
		}
	}

	return best, bestIndex, best != nil
}
