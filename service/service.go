package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fulldump/latestat/chunk"
	"github.com/fulldump/latestat/latestat"
	"github.com/fulldump/latestat/metrics"
	"github.com/fulldump/latestat/store"
)

type Config struct {
	Logger     *zap.Logger
	Registerer prometheus.Registerer

	IgnoreClears bool

	// MaxRowsPerChunk splits written batches into chunks of at most this many
	// rows. Zero means no limit.
	MaxRowsPerChunk int
}

// Service owns one store and the caches in front of it. Every store change is
// forwarded to the caches before the write returns.
type Service struct {
	config Config
	store  *store.MemStore
	caches *latestat.Caches
	logger *zap.Logger
}

var _ Servicer = (*Service)(nil)

func NewService(config Config) *Service {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	s := &Service{
		config: config,
		store: store.NewMemStore(store.Config{
			Logger:  config.Logger.Named("store"),
			Metrics: metrics.NewStore(config.Registerer),
		}),
		caches: latestat.NewCaches(latestat.Config{
			Logger:       config.Logger.Named("cache"),
			Metrics:      metrics.NewCache(config.Registerer),
			IgnoreClears: config.IgnoreClears,
		}),
		logger: config.Logger,
	}
	s.store.Subscribe(s.caches.OnEvents)

	return s
}

func (s *Service) Store() *store.MemStore {
	return s.store
}

func (s *Service) Caches() *latestat.Caches {
	return s.caches
}

// timelinesSignature identifies the set of timelines a row is logged on.
// Rows sharing a chunk must share it.
func timelinesSignature(timepoint chunk.TimePoint) string {
	names := make([]string, 0, len(timepoint))
	for timeline := range timepoint {
		names = append(names, timeline.Name+":"+string(timeline.Kind))
	}
	slices.Sort(names)
	return strings.Join(names, ",")
}

// InsertRows writes rows to entityPath. Rows are grouped by the timelines they
// are logged on, each group becomes one or more chunks of at most
// MaxRowsPerChunk rows. Row ids are assigned in the order rows are given.
func (s *Service) InsertRows(entityPath chunk.EntityPath, rows ...Row) ([]chunk.RowID, error) {

	if strings.TrimSpace(string(entityPath)) == "" {
		return nil, ErrEntityPathRequired
	}
	entityPath = chunk.NewEntityPath(string(entityPath))

	builders := map[string]*chunk.Builder{}
	order := []string{}
	rowIDs := make([]chunk.RowID, len(rows))

	for i, row := range rows {
		signature := timelinesSignature(row.TimePoint)
		b, ok := builders[signature]
		if !ok {
			b = chunk.NewBuilder(entityPath)
			builders[signature] = b
			order = append(order, signature)
		}

		rowIDs[i] = chunk.NewRowID()
		if err := b.AddRow(rowIDs[i], row.TimePoint, row.Cells...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}

	chunks := []*chunk.Chunk{}
	for _, signature := range order {
		parts, err := s.split(builders[signature])
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, parts...)
	}

	for _, c := range chunks {
		if err := s.store.Insert(c); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("rows inserted",
		zap.String("entity_path", string(entityPath)),
		zap.Int("rows", len(rows)),
		zap.Int("chunks", len(chunks)),
	)

	return rowIDs, nil
}

func (s *Service) split(b *chunk.Builder) ([]*chunk.Chunk, error) {

	builders := []*chunk.Builder{b}
	if limit := s.config.MaxRowsPerChunk; limit > 0 {
		for last := b; last.NumRows() > limit; {
			right, err := last.SplitOff(limit)
			if err != nil {
				return nil, err
			}
			builders = append(builders, right)
			last = right
		}
	}

	chunks := make([]*chunk.Chunk, 0, len(builders))
	for _, b := range builders {
		c, err := b.Build()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

func (s *Service) InsertChunk(c *chunk.Chunk) error {
	return s.store.Insert(c)
}

func (s *Service) LatestAt(query chunk.LatestAtQuery, entityPath chunk.EntityPath, components ...chunk.ComponentName) (*latestat.Results, error) {

	if strings.TrimSpace(string(entityPath)) == "" {
		return nil, ErrEntityPathRequired
	}
	if query.Timeline.Name == "" {
		return nil, ErrTimelineRequired
	}

	return s.caches.LatestAt(s.store, query, chunk.NewEntityPath(string(entityPath)), components), nil
}

func (s *Service) LatestAtMany(ctx context.Context, query chunk.LatestAtQuery, entityPaths []chunk.EntityPath, components ...chunk.ComponentName) (map[chunk.EntityPath]*latestat.Results, error) {

	if query.Timeline.Name == "" {
		return nil, ErrTimelineRequired
	}

	normalized := make([]chunk.EntityPath, 0, len(entityPaths))
	for _, entityPath := range entityPaths {
		if strings.TrimSpace(string(entityPath)) == "" {
			return nil, ErrEntityPathRequired
		}
		normalized = append(normalized, chunk.NewEntityPath(string(entityPath)))
	}

	return s.caches.LatestAtMany(ctx, s.store, query, normalized, components)
}

// Invalidate signals that data at dataTimes changed for key. It is only
// needed by writers that bypass this service.
func (s *Service) Invalidate(key latestat.CacheKey, dataTimes ...chunk.TimeInt) error {

	if strings.TrimSpace(string(key.EntityPath)) == "" {
		return ErrEntityPathRequired
	}
	if key.Timeline.Name == "" {
		return ErrTimelineRequired
	}
	if key.Component == "" {
		return ErrComponentRequired
	}

	key.EntityPath = chunk.NewEntityPath(string(key.EntityPath))
	s.caches.Invalidate(key, dataTimes...)
	return nil
}

// GarbageCollect shrinks the store to targetBytes and returns how many chunks
// were dropped.
func (s *Service) GarbageCollect(targetBytes uint64) int {
	return len(s.store.GarbageCollect(targetBytes))
}

func (s *Service) Stats() Stats {
	return Stats{
		Store:  s.store.Stats(),
		Cache:  s.caches.Stats(),
		Caches: s.caches.CacheStats(),
	}
}
