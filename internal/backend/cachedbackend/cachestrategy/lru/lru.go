// Package lru implements an LRU cache eviction strategy.
package lru

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/discochess/shardpile/internal/backend/cachedbackend/cachestrategy"
)

// Compile-time check that Strategy implements cachestrategy.Strategy.
var _ cachestrategy.Strategy = (*Strategy)(nil)

// Strategy evicts the least recently used object once capacity entries
// are held.
type Strategy struct {
	cache *lru.Cache[string, []byte]
}

// New creates an LRU strategy with the given capacity.
func New(capacity int) (*Strategy, error) {
	c, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, err
	}
	return &Strategy{cache: c}, nil
}

func (s *Strategy) Get(key string) ([]byte, bool) { return s.cache.Get(key) }

// Add reports whether an eviction occurred.
func (s *Strategy) Add(key string, value []byte) bool { return s.cache.Add(key, value) }

func (s *Strategy) Remove(key string) bool { return s.cache.Remove(key) }

func (s *Strategy) Len() int { return s.cache.Len() }
