// Package xxshard implements xxHash64-based sharding.
package xxshard

import (
	"github.com/cespare/xxhash/v2"

	"github.com/discochess/shardpile/internal/shard"
)

// Strategy implements xxHash64 sharding.
type Strategy struct{}

// Ensure Strategy implements shard.Strategy.
var _ shard.Strategy = (*Strategy)(nil)

func init() {
	shard.Register(New())
}

// New creates a new xxHash sharding strategy.
func New() *Strategy {
	return &Strategy{}
}

// Name returns the strategy name.
func (s *Strategy) Name() string {
	return "xxhash64"
}

// ShardID computes xxhash64(key) mod totalShards.
func (s *Strategy) ShardID(key string, totalShards int) int {
	return int(xxhash.Sum64String(key) % uint64(totalShards))
}
