package latestat

import (
	"go.uber.org/zap"

	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/store"
)

// clearIndex walks from entityPath up to the root and returns the most recent
// clear that applies to entityPath. A clear on the entity itself always
// applies; a clear on an ancestor only when it is recursive. Clears are read
// through the same caches as any other component.
func (c *Caches) clearIndex(s store.Store, query chunk.LatestAtQuery, entityPath chunk.EntityPath) (chunk.Index, bool) {
	var result chunk.Index
	found := false

	self := true
	for path := range entityPath.Ancestors() {
		target := self
		self = false

		key := CacheKey{EntityPath: path, Timeline: query.Timeline, Component: chunk.ClearIsRecursiveName}
		unit := c.entry(key).LatestAt(s, query.At)
		if unit == nil {
			continue
		}

		recursive, err := chunk.ComponentInstance[chunk.ClearIsRecursive](unit, chunk.ClearIsRecursiveName, 0, 0)
		if err != nil {
			c.logger.Warn("unreadable clear", zap.Stringer("entity_path", path), zap.Error(err))
			continue
		}
		if !target && !bool(recursive) {
			continue
		}

		index, _ := unit.Index(query.Timeline)
		if !found || chunk.CompareForClear(index, result) > 0 {
			result = index
			found = true
		}
	}

	return result, found
}
