package shard

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultName is the strategy used when store metadata names none.
const DefaultName = "adler32"

var (
	mu         sync.RWMutex
	strategies = make(map[string]Strategy)
)

// Register makes a strategy available by name. It panics if the name is
// already taken, like database/sql drivers.
func Register(s Strategy) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := strategies[s.Name()]; dup {
		panic("shard: Register called twice for strategy " + s.Name())
	}
	strategies[s.Name()] = s
}

// Lookup returns the strategy registered under name. An empty name
// resolves to DefaultName.
func Lookup(name string) (Strategy, error) {
	if name == "" {
		name = DefaultName
	}
	mu.RLock()
	defer mu.RUnlock()
	s, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown shard strategy %q", name)
	}
	return s, nil
}

// Names returns the registered strategy names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(strategies))
	for n := range strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
