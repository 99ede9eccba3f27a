// Package shard defines the partition function that maps canonical key
// strings to shard IDs.
package shard

// Strategy defines a sharding algorithm that maps keys to shard IDs.
type Strategy interface {
	// Name returns the name recorded in store metadata.
	Name() string

	// ShardID computes the shard ID for a canonical key string.
	// The returned value is in the range [0, totalShards).
	//
	// Implementations must be pure: the same key and totalShards always
	// yield the same ID, across processes and platforms, because stored
	// shards are appended to by later runs.
	ShardID(key string, totalShards int) int
}

// Assign computes one shard ID per key, in input order.
func Assign(s Strategy, keys []string, totalShards int) []int {
	ids := make([]int, len(keys))
	for i, k := range keys {
		ids[i] = s.ShardID(k, totalShards)
	}
	return ids
}

// Group returns, for each shard ID, the indexes of keys assigned to it.
// Indexes within a group keep their input order. Shards that receive no
// key have a nil group.
func Group(ids []int, totalShards int) [][]int {
	groups := make([][]int, totalShards)
	for i, id := range ids {
		groups[id] = append(groups[id], i)
	}
	return groups
}
