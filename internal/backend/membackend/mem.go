// Package membackend provides an in-memory backend for testing.
package membackend

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/discochess/shardpile/internal/backend"
)

// Compile-time check that Backend implements backend.Backend.
var _ backend.Backend = (*Backend)(nil)

// Backend is an in-memory backend for testing.
type Backend struct {
	mu      sync.RWMutex
	objects map[string][]byte
	gets    int
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{objects: make(map[string][]byte)}
}

// Get returns the named object.
func (b *Backend) Get(ctx context.Context, name string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gets++

	data, ok := b.objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", backend.ErrNotFound, name)
	}
	return data, nil
}

// Put stores a copy of r's content under name.
func (b *Backend) Put(ctx context.Context, name string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading object: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[name] = data
	return nil
}

// List returns the stored names, sorted.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.objects))
	for name := range b.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the named object.
func (b *Backend) Delete(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[name]; !ok {
		return fmt.Errorf("%w: %s", backend.ErrNotFound, name)
	}
	delete(b.objects, name)
	return nil
}

// Gets returns how many Get calls the backend has served.
func (b *Backend) Gets() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.gets
}

// Close is a no-op for the memory backend.
func (b *Backend) Close() error {
	return nil
}
