// Package diskshardpilefx provides an fx module for an existing on-disk
// shardpile store.
package diskshardpilefx

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/shardpile"
	"github.com/discochess/shardpile/internal/stats"
	"github.com/discochess/shardpile/internal/stats/logger"
)

// Config holds configuration for the on-disk store.
type Config struct {
	// Dir is the store directory. It must already contain metadata.
	Dir string

	// KeyColumn overrides the key column recorded in the metadata.
	KeyColumn string

	// Workers bounds the shards written in parallel. Zero keeps the default.
	Workers int

	// VerifyOnStart checks every shard when the application starts and
	// fails startup if any problem is found.
	VerifyOnStart bool
}

// Module provides a *shardpile.Store opened from Config.Dir.
// Requires a *zap.Logger and a Config to be provided.
var Module = fx.Module("diskshardpile",
	fx.Provide(
		newStatsCollector,
		newStore,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("shardpile.stats"))
}

// Params holds dependencies for opening the store.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided store.
type Result struct {
	fx.Out

	Store *shardpile.Store
}

func newStore(p Params) (Result, error) {
	opts := []shardpile.Option{
		shardpile.WithStats(p.Collector),
		shardpile.WithLogger(p.Logger.Named("shardpile")),
	}
	if p.Config.KeyColumn != "" {
		opts = append(opts, shardpile.WithKeyColumn(p.Config.KeyColumn))
	}
	if p.Config.Workers > 0 {
		opts = append(opts, shardpile.WithWorkers(p.Config.Workers))
	}

	s, err := shardpile.Open(p.Config.Dir, opts...)
	if err != nil {
		return Result{}, err
	}

	if p.Config.VerifyOnStart {
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				problems, err := s.Verify(ctx)
				if err != nil {
					return err
				}
				if len(problems) > 0 {
					return &VerifyError{Problems: problems}
				}
				return nil
			},
		})
	}
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if c, ok := p.Collector.(*logger.Collector); ok {
				c.Summary()
			}
			return nil
		},
	})

	return Result{Store: s}, nil
}

// VerifyError is returned from startup when VerifyOnStart finds problems.
type VerifyError struct {
	Problems []shardpile.Problem
}

func (e *VerifyError) Error() string {
	msg := "shardpile: store failed verification: " + e.Problems[0].String()
	if n := len(e.Problems) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}
