// Package metrics declares the Prometheus metrics of the cache and the store.
//
// Collectors are registered on the given Registerer. A nil Registerer leaves
// them unregistered, which is what tests use.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "latestat"

// Cache holds the metrics of the latest-at caches
type Cache struct {
	HitsTotal            prometheus.Counter
	MissesTotal          prometheus.Counter
	EmptyResolvesTotal   prometheus.Counter
	InvalidationsTotal   prometheus.Counter
	EvictionsTotal       *prometheus.CounterVec
	PendingInvalidations prometheus.Gauge
	ShadowedTotal        prometheus.Counter
	ResolveDuration      prometheus.Histogram
	CachesTotal          prometheus.Gauge
}

func NewCache(reg prometheus.Registerer) *Cache {
	factory := promauto.With(reg)

	return &Cache{
		HitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Latest-at reads answered from the query-time or data-time index",
		}),
		MissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Latest-at reads that had to resolve against the store",
		}),
		EmptyResolvesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "empty_resolves_total",
			Help:      "Resolutions that found no data",
		}),
		InvalidationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Data times signalled as stale",
		}),
		EvictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Cache entries discarded by pending invalidations",
		}, []string{"index"}),
		PendingInvalidations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "pending_invalidations",
			Help:      "Data times waiting in pending-invalidation sets",
		}),
		ShadowedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "shadowed_total",
			Help:      "Component results hidden by a clear",
		}),
		ResolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "resolve_duration_seconds",
			Help:      "Time spent resolving cache misses against the store",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 12),
		}),
		CachesTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "caches",
			Help:      "Number of per-key caches",
		}),
	}
}

// Store holds the metrics of the chunk store
type Store struct {
	Chunks      prometheus.Gauge
	Rows        prometheus.Gauge
	SizeBytes   prometheus.Gauge
	EventsTotal *prometheus.CounterVec
	GCDuration  prometheus.Histogram
}

func NewStore(reg prometheus.Registerer) *Store {
	factory := promauto.With(reg)

	return &Store{
		Chunks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "chunks",
			Help:      "Chunks held by the store",
		}),
		Rows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "rows",
			Help:      "Rows held by the store",
		}),
		SizeBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "size_bytes",
			Help:      "Estimated heap size of the stored chunks",
		}),
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "events_total",
			Help:      "Store events sent to subscribers",
		}, []string{"kind"}),
		GCDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "gc_duration_seconds",
			Help:      "Time spent in garbage collection",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
