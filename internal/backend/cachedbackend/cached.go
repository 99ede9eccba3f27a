package cachedbackend

import (
	"context"
	"io"

	"github.com/discochess/shardpile/internal/backend"
)

// Compile-time check that Backend implements backend.Backend.
var _ backend.Backend = (*Backend)(nil)

// Backend wraps another Backend, serving Get from a cache. Writes go to
// the underlying backend and invalidate the cached entry.
type Backend struct {
	underlying backend.Backend
	cache      Cache
}

// New creates a cached backend wrapping the given one.
func New(underlying backend.Backend, cache Cache) *Backend {
	return &Backend{
		underlying: underlying,
		cache:      cache,
	}
}

// Get reads an object, checking the cache first.
func (b *Backend) Get(ctx context.Context, name string) ([]byte, error) {
	if data, ok := b.cache.Get(name); ok {
		return data, nil
	}

	data, err := b.underlying.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	b.cache.Set(name, data)
	return data, nil
}

// Put writes through to the underlying backend.
func (b *Backend) Put(ctx context.Context, name string, r io.Reader) error {
	b.cache.Remove(name)
	return b.underlying.Put(ctx, name, r)
}

// List is never cached.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	return b.underlying.List(ctx)
}

// Delete removes the object from the underlying backend and the cache.
func (b *Backend) Delete(ctx context.Context, name string) error {
	b.cache.Remove(name)
	return b.underlying.Delete(ctx, name)
}

// Close closes the underlying backend.
func (b *Backend) Close() error {
	return b.underlying.Close()
}

// Stats returns cache statistics.
func (b *Backend) Stats() Stats {
	return b.cache.Stats()
}
