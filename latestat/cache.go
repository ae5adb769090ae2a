// Package latestat answers "what was the latest value of this component at
// that time" with a read-through cache in front of a store.
//
// There is one Cache per (entity path, timeline, component). Each remembers
// answers by the time they were asked for and by the time the answer was
// logged at. Writes only record which data times became stale; the stale
// entries are dropped on the next read of that cache.
package latestat

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/btree"
	"go.uber.org/zap"

	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/metrics"
	"github.com/fulldump/latestat/store"
)

type CacheKey struct {
	EntityPath chunk.EntityPath    `json:"entity_path"`
	Timeline   chunk.Timeline      `json:"timeline"`
	Component  chunk.ComponentName `json:"component"`
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.EntityPath, k.Timeline, k.Component)
}

type entry struct {
	time  chunk.TimeInt
	chunk *chunk.Chunk
}

func entryLess(a, b entry) bool {
	return a.time < b.time
}

type CacheStats struct {
	Key                  CacheKey `json:"key"`
	QueryTimeEntries     int      `json:"query_time_entries"`
	DataTimeEntries      int      `json:"data_time_entries"`
	PendingInvalidations int      `json:"pending_invalidations"`
	SizeBytes            uint64   `json:"size_bytes"`
}

type Cache struct {
	key   CacheKey
	mutex sync.Mutex

	perQueryTime         *btree.BTreeG[entry]
	perDataTime          *btree.BTreeG[entry]
	pendingInvalidations *btree.BTreeG[chunk.TimeInt]

	// detached caches were dropped from their registry and no longer count
	// towards the shared pending gauge.
	detached bool

	logger  *zap.Logger
	metrics *metrics.Cache
}

func NewCache(key CacheKey, config Config) *Cache {
	config = config.withDefaults()

	return &Cache{
		key:          key,
		perQueryTime: btree.NewG(32, entryLess),
		perDataTime:  btree.NewG(32, entryLess),
		pendingInvalidations: btree.NewG(32, func(a, b chunk.TimeInt) bool {
			return a < b
		}),
		logger:  config.Logger.With(zap.Stringer("cache", key)),
		metrics: config.Metrics,
	}
}

func (c *Cache) Key() CacheKey {
	return c.key
}

// Invalidate records data times that may now resolve differently. The
// indexes are left untouched until the next read.
func (c *Cache) Invalidate(dataTimes ...chunk.TimeInt) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, t := range dataTimes {
		if _, replaced := c.pendingInvalidations.ReplaceOrInsert(t); !replaced && !c.detached {
			c.metrics.PendingInvalidations.Inc()
		}
	}
	c.metrics.InvalidationsTotal.Add(float64(len(dataTimes)))
}

// HandlePendingInvalidation applies the pending invalidations. Reads call it
// before looking at the indexes.
func (c *Cache) HandlePendingInvalidation() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.handlePendingInvalidation()
}

func (c *Cache) handlePendingInvalidation() {
	oldest, ok := c.pendingInvalidations.Min()
	if !ok {
		return
	}

	// Any query at or after the oldest stale data time may now resolve to
	// something else. Earlier queries cannot see the change.
	stale := []entry{}
	c.perQueryTime.AscendGreaterOrEqual(entry{time: oldest}, func(e entry) bool {
		stale = append(stale, e)
		return true
	})
	for _, e := range stale {
		c.perQueryTime.Delete(e)
	}

	// Pending times that match no data-time entry stay pending: the answer
	// they invalidate may not have been cached yet.
	matched := []chunk.TimeInt{}
	c.pendingInvalidations.Ascend(func(t chunk.TimeInt) bool {
		if _, found := c.perDataTime.Delete(entry{time: t}); found {
			matched = append(matched, t)
		}
		return true
	})
	for _, t := range matched {
		c.pendingInvalidations.Delete(t)
	}

	c.metrics.EvictionsTotal.WithLabelValues("query_time").Add(float64(len(stale)))
	c.metrics.EvictionsTotal.WithLabelValues("data_time").Add(float64(len(matched)))
	if !c.detached {
		c.metrics.PendingInvalidations.Sub(float64(len(matched)))
	}

	if retained := c.pendingInvalidations.Len(); retained > 0 {
		c.logger.Debug("pending invalidations retained",
			zap.Int("retained", retained),
			zap.Int("query_time_evicted", len(stale)),
			zap.Int("data_time_evicted", len(matched)),
		)
	}
}

// detach takes the pending invalidations of c out of the shared gauge. Later
// calls on c keep working but are no longer reflected there.
func (c *Cache) detach() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.detached {
		return
	}
	c.detached = true
	c.metrics.PendingInvalidations.Sub(float64(c.pendingInvalidations.Len()))
}

// PendingInvalidations returns the data times waiting to be applied, in
// ascending order.
func (c *Cache) PendingInvalidations() []chunk.TimeInt {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	result := make([]chunk.TimeInt, 0, c.pendingInvalidations.Len())
	c.pendingInvalidations.Ascend(func(t chunk.TimeInt) bool {
		result = append(result, t)
		return true
	})
	return result
}

// LatestAt returns the unit chunk with the latest value at or before at, or
// nil when there is none. Repeated reads return the same chunk until an
// invalidation affects it.
func (c *Cache) LatestAt(s store.Store, at chunk.TimeInt) *chunk.Chunk {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.handlePendingInvalidation()

	if e, ok := c.perQueryTime.Get(entry{time: at}); ok {
		c.metrics.HitsTotal.Inc()
		return e.chunk
	}

	// A data-time entry at exactly the query time is the answer itself.
	if e, ok := c.perDataTime.Get(entry{time: at}); ok {
		c.metrics.HitsTotal.Inc()
		c.perQueryTime.ReplaceOrInsert(entry{time: at, chunk: e.chunk})
		return e.chunk
	}

	c.metrics.MissesTotal.Inc()
	started := time.Now()
	unit, index, found := resolve(s, c.key, at)
	c.metrics.ResolveDuration.Observe(time.Since(started).Seconds())

	if !found {
		c.metrics.EmptyResolvesTotal.Inc()
		return nil
	}

	if e, ok := c.perDataTime.Get(entry{time: index.Time}); ok {
		c.perQueryTime.ReplaceOrInsert(entry{time: at, chunk: e.chunk})
		return e.chunk
	}

	c.perQueryTime.ReplaceOrInsert(entry{time: at, chunk: unit})
	c.perDataTime.ReplaceOrInsert(entry{time: index.Time, chunk: unit})

	c.logger.Debug("resolved",
		zap.Stringer("query_time", at),
		zap.Stringer("data_time", index.Time),
		zap.Stringer("row_id", index.RowID),
	)

	return unit
}

func (c *Cache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	seen := map[*chunk.Chunk]bool{}
	size := uint64(0)
	account := func(e entry) bool {
		if !seen[e.chunk] {
			seen[e.chunk] = true
			size += e.chunk.SizeBytes()
		}
		return true
	}
	c.perQueryTime.Ascend(account)
	c.perDataTime.Ascend(account)

	return CacheStats{
		Key:                  c.key,
		QueryTimeEntries:     c.perQueryTime.Len(),
		DataTimeEntries:      c.perDataTime.Len(),
		PendingInvalidations: c.pendingInvalidations.Len(),
		SizeBytes:            size,
	}
}
