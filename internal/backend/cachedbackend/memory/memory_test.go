package memory

import (
	"testing"

	"go.uber.org/zap"

	"github.com/discochess/shardpile/internal/backend/cachedbackend/cachestrategy/lru"
	"github.com/discochess/shardpile/internal/stats"
	"github.com/discochess/shardpile/internal/stats/logger"
)

func newCache(t *testing.T, capacity int, collector stats.Collector) *Cache {
	t.Helper()
	strategy, err := lru.New(capacity)
	if err != nil {
		t.Fatalf("lru.New() error = %v", err)
	}
	return New(strategy, collector)
}

func TestCache_GetSet(t *testing.T) {
	c := newCache(t, 10, nil)

	if _, ok := c.Get("a"); ok {
		t.Error("Get() should return false for missing key")
	}
	c.Set("a", []byte("hello"))
	data, ok := c.Get("a")
	if !ok || string(data) != "hello" {
		t.Errorf("Get() = %q, %v; want %q, true", data, ok, "hello")
	}

	c.Remove("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get() after Remove should miss")
	}
}

func TestCache_Stats(t *testing.T) {
	c := newCache(t, 10, nil)
	c.Set("a", []byte("data"))
	c.Get("a")
	c.Get("b")

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Size != 1 {
		t.Errorf("Stats() = %+v, want 1 hit, 1 miss, size 1", s)
	}
}

func TestCache_Eviction(t *testing.T) {
	c := newCache(t, 2, nil)
	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Set("c", []byte("3"))

	if _, ok := c.Get("a"); ok {
		t.Error("a should have been evicted")
	}
	if c.Stats().Size != 2 {
		t.Errorf("Size = %d, want 2", c.Stats().Size)
	}
}

func TestCache_ReportsMetrics(t *testing.T) {
	collector := logger.New(zap.NewNop())
	c := newCache(t, 10, collector)

	c.Set("a", []byte("1"))
	c.Get("a")
	c.Get("a")
	c.Get("b")

	totals := collector.Totals()
	if totals[stats.MetricCacheHits] != 2 {
		t.Errorf("%s = %d, want 2", stats.MetricCacheHits, totals[stats.MetricCacheHits])
	}
	if totals[stats.MetricCacheMisses] != 1 {
		t.Errorf("%s = %d, want 1", stats.MetricCacheMisses, totals[stats.MetricCacheMisses])
	}
}
