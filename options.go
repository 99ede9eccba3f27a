package shardpile

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/discochess/shardpile/internal/stats"
)

// Option configures a Layout, Store or Transform.
type Option interface {
	apply(*options)
}

// options holds the settings shared by every store handle.
type options struct {
	stats     stats.Collector
	logger    *zap.Logger
	workers   int
	keyColumn string
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		stats:   stats.NewNoop(),
		logger:  zap.NewNop(),
		workers: min(runtime.GOMAXPROCS(0), 8),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithWorkers sets how many shard files are written in parallel.
// Default is GOMAXPROCS, capped at 8.
func WithWorkers(n int) Option {
	return optionFunc(func(o *options) {
		o.workers = n
	})
}

// WithKeyColumn sets the key column of an opened store, overriding the
// one recorded in its metadata.
func WithKeyColumn(column string) Option {
	return optionFunc(func(o *options) {
		o.keyColumn = column
	})
}
