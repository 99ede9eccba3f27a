// Package stats provides a unified interface for collecting metrics.
package stats

import "time"

// Metric names used throughout the library.
const (
	// Store metrics.
	MetricAppends       = "shardpile_appends_total"
	MetricRowsAppended  = "shardpile_rows_appended_total"
	MetricShardsCreated = "shardpile_shards_created_total"
	MetricShardWrites   = "shardpile_shard_writes_total"
	MetricAppendSeconds = "shardpile_append_seconds"

	// Remote read metrics.
	MetricObjectFetches = "shardpile_object_fetches_total"

	// Cache metrics.
	MetricCacheHits   = "shardpile_cache_hits_total"
	MetricCacheMisses = "shardpile_cache_misses_total"
	MetricCacheSize   = "shardpile_cache_size"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}

// Noop discards all metrics.
type Noop struct{}

// Compile-time check that Noop implements Collector.
var _ Collector = Noop{}

// NewNoop returns a collector that discards all metrics.
func NewNoop() Noop {
	return Noop{}
}

func (Noop) IncCounter(string, int64)         {}
func (Noop) SetGauge(string, int64)           {}
func (Noop) ObserveHistogram(string, float64) {}

// ObserveSince records the seconds elapsed since start in a histogram.
func ObserveSince(c Collector, name string, start time.Time) {
	c.ObserveHistogram(name, time.Since(start).Seconds())
}
