package latestat

import (
	"go.uber.org/zap"

	"github.com/fulldump/latestat/metrics"
)

type Config struct {
	Logger  *zap.Logger
	Metrics *metrics.Cache

	// IgnoreClears keeps components that a clear would hide. The clear index
	// is still computed and reported in Results.
	IgnoreClears bool

	// Parallelism bounds LatestAtMany. Zero means GOMAXPROCS.
	Parallelism int
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewCache(nil)
	}
	return c
}
