// Package adlershard implements Adler-32 checksum based sharding.
//
// This is the default strategy. Adler-32 over the UTF-8 bytes of the
// canonical key is what pdpart-style directories were written with, so
// rows with non-null keys land in the same shard either way. Null keys
// differ: pdpart hashes them as "nan" while this package hashes the empty
// string, so null-key rows in a pdpart-written store fail Store.Verify.
package adlershard

import (
	"hash/adler32"

	"github.com/discochess/shardpile/internal/shard"
)

// Strategy implements Adler-32 sharding.
type Strategy struct{}

// Ensure Strategy implements shard.Strategy.
var _ shard.Strategy = (*Strategy)(nil)

func init() {
	shard.Register(New())
}

// New creates a new Adler-32 sharding strategy.
func New() *Strategy {
	return &Strategy{}
}

// Name returns the strategy name.
func (s *Strategy) Name() string {
	return "adler32"
}

// ShardID computes adler32(key) mod totalShards.
func (s *Strategy) ShardID(key string, totalShards int) int {
	return int(adler32.Checksum([]byte(key)) % uint32(totalShards))
}
