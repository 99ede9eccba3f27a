// Package remoteshardpilefx provides an fx module for reading a store that
// was published to a backend.
package remoteshardpilefx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/shardpile"
	"github.com/discochess/shardpile/internal/backend"
	"github.com/discochess/shardpile/internal/backend/cachedbackend"
	"github.com/discochess/shardpile/internal/backend/cachedbackend/cachestrategy/lru"
	"github.com/discochess/shardpile/internal/backend/cachedbackend/memory"
	"github.com/discochess/shardpile/internal/stats"
	"github.com/discochess/shardpile/internal/stats/logger"
)

// Config holds configuration for the remote reader.
type Config struct {
	// CacheSize is the number of shards to cache in memory.
	// Default is 100.
	CacheSize int

	// KeyColumn overrides the key column recorded in the metadata.
	KeyColumn string
}

// Module provides a *shardpile.Remote reading through an LRU cache. The
// metadata object is cached along with the shards.
// Requires a *zap.Logger, a Config and a backend.Backend to be provided.
// The backend is closed when the application stops.
var Module = fx.Module("remoteshardpile",
	fx.Provide(
		newStatsCollector,
		newRemote,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("shardpile.stats"))
}

// Params holds dependencies for creating the reader.
type Params struct {
	fx.In

	Config    Config
	Backend   backend.Backend
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided reader and its cache.
type Result struct {
	fx.Out

	Remote *shardpile.Remote
	Cache  *cachedbackend.Backend
}

func newRemote(p Params) (Result, error) {
	cacheSize := p.Config.CacheSize
	if cacheSize <= 0 {
		cacheSize = 100
	}
	strategy, err := lru.New(cacheSize)
	if err != nil {
		return Result{}, err
	}
	cached := cachedbackend.New(p.Backend, memory.New(strategy, p.Collector))

	opts := []shardpile.Option{
		shardpile.WithStats(p.Collector),
		shardpile.WithLogger(p.Logger.Named("shardpile")),
	}
	if p.Config.KeyColumn != "" {
		opts = append(opts, shardpile.WithKeyColumn(p.Config.KeyColumn))
	}
	r, err := shardpile.NewRemote(context.Background(), cached, opts...)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return cached.Close()
		},
	})

	return Result{Remote: r, Cache: cached}, nil
}
