package latestat

import (
	"context"
	"runtime"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/metrics"
	"github.com/fulldump/latestat/store"
)

type entityComponent struct {
	entityPath chunk.EntityPath
	component  chunk.ComponentName
}

type Stats struct {
	Caches               int    `json:"caches"`
	QueryTimeEntries     int    `json:"query_time_entries"`
	DataTimeEntries      int    `json:"data_time_entries"`
	PendingInvalidations int    `json:"pending_invalidations"`
	SizeBytes            uint64 `json:"size_bytes"`
}

// Caches is the registry of per-key caches. Looking up or creating a cache is
// a short critical section on the registry; everything else runs under the
// lock of one cache.
type Caches struct {
	config Config

	mutex  sync.RWMutex
	caches map[CacheKey]*Cache

	// timelines lists the timelines with a cache for every entity and
	// component, so static writes can reach all of them.
	timelines map[entityComponent]map[chunk.Timeline]struct{}

	logger  *zap.Logger
	metrics *metrics.Cache
}

func NewCaches(config Config) *Caches {
	config = config.withDefaults()

	return &Caches{
		config:    config,
		caches:    map[CacheKey]*Cache{},
		timelines: map[entityComponent]map[chunk.Timeline]struct{}{},
		logger:    config.Logger,
		metrics:   config.Metrics,
	}
}

// Get returns the cache for key if it exists.
func (c *Caches) Get(key CacheKey) (*Cache, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	cache, ok := c.caches[key]
	return cache, ok
}

func (c *Caches) entry(key CacheKey) *Cache {
	if cache, ok := c.Get(key); ok {
		return cache
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if cache, ok := c.caches[key]; ok {
		return cache
	}

	cache := NewCache(key, c.config)
	c.caches[key] = cache

	ec := entityComponent{entityPath: key.EntityPath, component: key.Component}
	if c.timelines[ec] == nil {
		c.timelines[ec] = map[chunk.Timeline]struct{}{}
	}
	c.timelines[ec][key.Timeline] = struct{}{}

	c.metrics.CachesTotal.Set(float64(len(c.caches)))
	return cache
}

func (c *Caches) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.caches)
}

// Invalidate records that dataTime may be stale for key. Keys without a cache
// are skipped: a cache created later resolves against a store that already
// holds the write.
func (c *Caches) Invalidate(key CacheKey, dataTimes ...chunk.TimeInt) {
	if cache, ok := c.Get(key); ok {
		cache.Invalidate(dataTimes...)
	}
}

// OnEvents is the store subscriber. Every row of an added or removed chunk
// invalidates its data time on each timeline for each component it logged.
// Static rows invalidate every timeline.
func (c *Caches) OnEvents(events []store.Event) {
	pending := map[CacheKey][]chunk.TimeInt{}

	c.mutex.RLock()
	for _, event := range events {
		ch := event.Chunk
		for _, name := range ch.ComponentNames() {
			column, _ := ch.Column(name)

			if ch.IsStatic() {
				ec := entityComponent{entityPath: ch.EntityPath(), component: name}
				for timeline := range c.timelines[ec] {
					key := CacheKey{EntityPath: ch.EntityPath(), Timeline: timeline, Component: name}
					pending[key] = append(pending[key], chunk.TimeStatic)
				}
				continue
			}

			for _, timeline := range ch.Timelines() {
				key := CacheKey{EntityPath: ch.EntityPath(), Timeline: timeline, Component: name}
				if _, ok := c.caches[key]; !ok {
					continue
				}
				times, _ := ch.TimeColumn(timeline)
				for row, t := range times.Times() {
					if column.IsValid(row) {
						pending[key] = append(pending[key], t)
					}
				}
			}
		}
	}

	caches := make(map[CacheKey]*Cache, len(pending))
	for key := range pending {
		if cache, ok := c.caches[key]; ok {
			caches[key] = cache
		}
	}
	c.mutex.RUnlock()

	for key, cache := range caches {
		cache.Invalidate(pending[key]...)
	}

	c.logger.Debug("store events handled",
		zap.Int("events", len(events)),
		zap.Int("caches_invalidated", len(caches)),
	)
}

// LatestAt resolves several components of one entity at once. Components
// without data, or hidden by a clear, are missing from the results.
func (c *Caches) LatestAt(s store.Store, query chunk.LatestAtQuery, entityPath chunk.EntityPath, components []chunk.ComponentName) *Results {
	results := newResults(entityPath)

	clearIndex, cleared := c.clearIndex(s, query, entityPath)
	if cleared {
		results.ClearIndex = &clearIndex
	}

	for _, name := range components {
		key := CacheKey{EntityPath: entityPath, Timeline: query.Timeline, Component: name}
		unit := c.entry(key).LatestAt(s, query.At)
		if unit == nil {
			continue
		}
		index, _ := unit.Index(query.Timeline)

		if cleared && name != chunk.ClearIsRecursiveName && chunk.CompareForClear(clearIndex, index) > 0 {
			results.Shadowed = append(results.Shadowed, name)
			c.metrics.ShadowedTotal.Inc()
			if !c.config.IgnoreClears {
				continue
			}
		}

		results.add(name, unit, index)
	}

	return results
}

// LatestAtMany runs LatestAt for several entities in parallel. The result is
// keyed by normalized entity path; paths that normalize to the same entity
// are queried once.
func (c *Caches) LatestAtMany(ctx context.Context, s store.Store, query chunk.LatestAtQuery, entityPaths []chunk.EntityPath, components []chunk.ComponentName) (map[chunk.EntityPath]*Results, error) {
	parallelism := c.config.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	unique := make([]chunk.EntityPath, 0, len(entityPaths))
	seen := make(map[chunk.EntityPath]struct{}, len(entityPaths))
	for _, entityPath := range entityPaths {
		entityPath = chunk.NewEntityPath(string(entityPath))
		if _, ok := seen[entityPath]; ok {
			continue
		}
		seen[entityPath] = struct{}{}
		unique = append(unique, entityPath)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	all := make([]*Results, len(unique))
	for i, entityPath := range unique {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			all[i] = c.LatestAt(s, query, entityPath, components)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[chunk.EntityPath]*Results, len(all))
	for _, r := range all {
		result[r.EntityPath] = r
	}
	return result, nil
}

// CacheStats returns the stats of every cache ordered by key.
func (c *Caches) CacheStats() []CacheStats {
	c.mutex.RLock()
	caches := make([]*Cache, 0, len(c.caches))
	for _, cache := range c.caches {
		caches = append(caches, cache)
	}
	c.mutex.RUnlock()

	result := make([]CacheStats, 0, len(caches))
	for _, cache := range caches {
		result = append(result, cache.Stats())
	}
	slices.SortFunc(result, func(a, b CacheStats) int {
		return strings.Compare(a.Key.String(), b.Key.String())
	})
	return result
}

func (c *Caches) Stats() Stats {
	stats := Stats{}
	for _, s := range c.CacheStats() {
		stats.Caches++
		stats.QueryTimeEntries += s.QueryTimeEntries
		stats.DataTimeEntries += s.DataTimeEntries
		stats.PendingInvalidations += s.PendingInvalidations
		stats.SizeBytes += s.SizeBytes
	}
	return stats
}

// Clear drops every cache. Callers still holding one of them can keep using
// it, detached from the registry and its pending gauge.
func (c *Caches) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, cache := range c.caches {
		cache.detach()
	}
	c.caches = map[CacheKey]*Cache{}
	c.timelines = map[entityComponent]map[chunk.Timeline]struct{}{}
	c.metrics.CachesTotal.Set(0)
}
