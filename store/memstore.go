package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/btree"
	"go.uber.org/zap"

	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/metrics"
)

type Config struct {
	Logger  *zap.Logger
	Metrics *metrics.Store
}

type Stats struct {
	Entities  int    `json:"entities"`
	Chunks    int    `json:"chunks"`
	Static    int    `json:"static_chunks"`
	Rows      int    `json:"rows"`
	SizeBytes uint64 `json:"size_bytes"`
}

type entityChunks struct {
	static   []*chunk.Chunk
	temporal map[chunk.Timeline]*btree.BTreeG[*chunk.Chunk]
}

// MemStore is an in-memory Store. Temporal chunks are indexed per entity and
// timeline by (min time, chunk id).
type MemStore struct {
	mutex    sync.RWMutex
	entities map[chunk.EntityPath]*entityChunks
	chunks   map[chunk.ChunkID]*chunk.Chunk
	byID     *btree.BTreeG[*chunk.Chunk] // insertion order, ids are UUIDv7
	stats    Stats

	subscribersMutex sync.RWMutex
	subscribers      []Subscriber

	logger  *zap.Logger
	metrics *metrics.Store
}

var _ Store = (*MemStore)(nil)

func NewMemStore(config Config) *MemStore {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Metrics == nil {
		config.Metrics = metrics.NewStore(nil)
	}

	return &MemStore{
		entities: map[chunk.EntityPath]*entityChunks{},
		chunks:   map[chunk.ChunkID]*chunk.Chunk{},
		byID: btree.NewG(32, func(a, b *chunk.Chunk) bool {
			return a.ID().Compare(b.ID()) < 0
		}),
		logger:  config.Logger,
		metrics: config.Metrics,
	}
}

func timelineIndex(timeline chunk.Timeline) *btree.BTreeG[*chunk.Chunk] {
	return btree.NewG(32, func(a, b *chunk.Chunk) bool {
		ta, _ := a.TimeColumn(timeline)
		tb, _ := b.TimeColumn(timeline)
		if ta.Min() != tb.Min() {
			return ta.Min() < tb.Min()
		}
		return a.ID().Compare(b.ID()) < 0
	})
}

func (s *MemStore) Subscribe(subscriber Subscriber) {
	s.subscribersMutex.Lock()
	defer s.subscribersMutex.Unlock()
	s.subscribers = append(s.subscribers, subscriber)
}

func (s *MemStore) notify(events []Event) {
	if len(events) == 0 {
		return
	}
	for _, event := range events {
		s.metrics.EventsTotal.WithLabelValues(string(event.Kind)).Inc()
	}

	s.subscribersMutex.RLock()
	subscribers := s.subscribers
	s.subscribersMutex.RUnlock()

	for _, subscriber := range subscribers {
		subscriber(events)
	}
}

// Insert adds a chunk and then notifies subscribers.
func (s *MemStore) Insert(c *chunk.Chunk) error {
	if c.IsEmpty() {
		return fmt.Errorf("insert %s: %w", c.ID(), chunk.ErrMalformedChunk)
	}

	s.mutex.Lock()
	if _, exists := s.chunks[c.ID()]; exists {
		s.mutex.Unlock()
		return fmt.Errorf("insert %s: %w", c.ID(), ErrChunkAlreadyExists)
	}
	s.add(c)
	s.mutex.Unlock()

	s.notify([]Event{{Kind: Addition, Chunk: c}})
	return nil
}

func (s *MemStore) add(c *chunk.Chunk) {
	entity, ok := s.entities[c.EntityPath()]
	if !ok {
		entity = &entityChunks{
			temporal: map[chunk.Timeline]*btree.BTreeG[*chunk.Chunk]{},
		}
		s.entities[c.EntityPath()] = entity
	}

	if c.IsStatic() {
		entity.static = append(entity.static, c)
		s.stats.Static++
	}
	for _, timeline := range c.Timelines() {
		index, ok := entity.temporal[timeline]
		if !ok {
			index = timelineIndex(timeline)
			entity.temporal[timeline] = index
		}
		index.ReplaceOrInsert(c)
	}
	s.byID.ReplaceOrInsert(c)
	s.chunks[c.ID()] = c

	s.stats.Chunks++
	s.stats.Rows += c.NumRows()
	s.stats.SizeBytes += c.SizeBytes()
	s.updateGauges()
}

func (s *MemStore) remove(c *chunk.Chunk) {
	entity := s.entities[c.EntityPath()]

	if c.IsStatic() {
		for i, static := range entity.static {
			if static == c {
				entity.static = append(entity.static[:i], entity.static[i+1:]...)
				break
			}
		}
		s.stats.Static--
	}
	for _, timeline := range c.Timelines() {
		index := entity.temporal[timeline]
		index.Delete(c)
		if index.Len() == 0 {
			delete(entity.temporal, timeline)
		}
	}
	if len(entity.static) == 0 && len(entity.temporal) == 0 {
		delete(s.entities, c.EntityPath())
	}
	s.byID.Delete(c)
	delete(s.chunks, c.ID())

	s.stats.Chunks--
	s.stats.Rows -= c.NumRows()
	s.stats.SizeBytes -= c.SizeBytes()
	s.updateGauges()
}

func (s *MemStore) updateGauges() {
	s.metrics.Chunks.Set(float64(s.stats.Chunks))
	s.metrics.Rows.Set(float64(s.stats.Rows))
	s.metrics.SizeBytes.Set(float64(s.stats.SizeBytes))
}

func (s *MemStore) Get(id chunk.ChunkID) (*chunk.Chunk, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	c, ok := s.chunks[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, ErrChunkNotFound)
	}
	return c, nil
}

// Remove drops a chunk and then notifies subscribers.
func (s *MemStore) Remove(id chunk.ChunkID) error {
	s.mutex.Lock()
	c, ok := s.chunks[id]
	if !ok {
		s.mutex.Unlock()
		return fmt.Errorf("remove %s: %w", id, ErrChunkNotFound)
	}
	s.remove(c)
	s.mutex.Unlock()

	s.notify([]Event{{Kind: Deletion, Chunk: c}})
	return nil
}

// GarbageCollect drops the oldest temporal chunks until the store is not
// larger than targetBytes. Static chunks are never collected. It returns the
// dropped chunks.
func (s *MemStore) GarbageCollect(targetBytes uint64) []*chunk.Chunk {
	started := time.Now()
	defer func() {
		s.metrics.GCDuration.Observe(time.Since(started).Seconds())
	}()

	s.mutex.Lock()
	before := s.stats.SizeBytes
	remaining := before
	dropped := []*chunk.Chunk{}
	s.byID.Ascend(func(c *chunk.Chunk) bool {
		if remaining <= targetBytes {
			return false
		}
		if !c.IsStatic() {
			dropped = append(dropped, c)
			remaining -= c.SizeBytes()
		}
		return true
	})
	for _, c := range dropped {
		s.remove(c)
	}
	after := s.stats.SizeBytes
	s.mutex.Unlock()

	s.logger.Info("store garbage collected",
		zap.Int("dropped_chunks", len(dropped)),
		zap.Uint64("before_bytes", before),
		zap.Uint64("after_bytes", after),
		zap.Uint64("target_bytes", targetBytes),
	)

	events := make([]Event, len(dropped))
	for i, c := range dropped {
		events[i] = Event{Kind: Deletion, Chunk: c}
	}
	s.notify(events)

	return dropped
}

func (s *MemStore) Stats() Stats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := s.stats
	stats.Entities = len(s.entities)
	return stats
}

func (s *MemStore) RelevantChunks(entityPath chunk.EntityPath, query chunk.LatestAtQuery, component chunk.ComponentName) []*chunk.Chunk {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entity, ok := s.entities[entityPath]
	if !ok {
		return nil
	}

	result := []*chunk.Chunk{}
	for _, c := range entity.static {
		if c.HasComponent(component) {
			result = append(result, c)
		}
	}

	index, ok := entity.temporal[query.Timeline]
	if !ok {
		return result
	}
	index.Ascend(func(c *chunk.Chunk) bool {
		times, _ := c.TimeColumn(query.Timeline)
		if times.Min() > query.At {
			return false
		}
		if c.HasComponent(component) {
			result = append(result, c)
		}
		return true
	})

	return result
}

func (s *MemStore) LatestAtRow(c *chunk.Chunk, query chunk.LatestAtQuery, component chunk.ComponentName) *chunk.Chunk {
	return c.LatestAt(query, component)
}
