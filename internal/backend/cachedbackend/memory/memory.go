// Package memory implements an in-memory cache for cachedbackend.
package memory

import (
	"sync/atomic"

	"github.com/discochess/shardpile/internal/backend/cachedbackend"
	"github.com/discochess/shardpile/internal/backend/cachedbackend/cachestrategy"
	"github.com/discochess/shardpile/internal/stats"
)

// Compile-time check that Cache implements cachedbackend.Cache.
var _ cachedbackend.Cache = (*Cache)(nil)

// Cache is a thread-safe in-memory cache.
type Cache struct {
	strategy  cachestrategy.Strategy
	collector stats.Collector

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a memory cache with the given eviction strategy.
// The collector is optional; if nil, a no-op collector is used.
func New(strategy cachestrategy.Strategy, collector stats.Collector) *Cache {
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Cache{
		strategy:  strategy,
		collector: collector,
	}
}

// Get retrieves an object from the cache.
func (c *Cache) Get(name string) ([]byte, bool) {
	val, ok := c.strategy.Get(name)
	if ok {
		c.hits.Add(1)
		c.collector.IncCounter(stats.MetricCacheHits, 1)
		return val, true
	}
	c.misses.Add(1)
	c.collector.IncCounter(stats.MetricCacheMisses, 1)
	return nil, false
}

// Set stores an object in the cache.
func (c *Cache) Set(name string, data []byte) {
	c.strategy.Add(name, data)
	c.collector.SetGauge(stats.MetricCacheSize, int64(c.strategy.Len()))
}

// Remove drops an object from the cache.
func (c *Cache) Remove(name string) {
	if c.strategy.Remove(name) {
		c.collector.SetGauge(stats.MetricCacheSize, int64(c.strategy.Len()))
	}
}

// Stats returns current cache statistics.
func (c *Cache) Stats() cachedbackend.Stats {
	return cachedbackend.Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.strategy.Len(),
	}
}
