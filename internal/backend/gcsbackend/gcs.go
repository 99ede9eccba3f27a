// Package gcsbackend implements a Google Cloud Storage backend.
package gcsbackend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/discochess/shardpile/internal/backend"
)

// Compile-time check that Backend implements backend.Backend.
var _ backend.Backend = (*Backend)(nil)

// Backend stores objects in a GCS bucket under an optional prefix.
type Backend struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// Option configures a Backend.
type Option func(*config)

type config struct {
	prefix     string
	clientOpts []option.ClientOption
}

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = backend.NormalizePrefix(prefix)
	}
}

// WithClientOptions passes options to the GCS client, for example an
// endpoint for an emulator or explicit credentials.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *config) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// New creates a GCS backend. The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Backend, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := storage.NewClient(ctx, cfg.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	return &Backend{
		client: client,
		bucket: client.Bucket(bucketName),
		prefix: cfg.prefix,
	}, nil
}

// Get reads the named object.
func (b *Backend) Get(ctx context.Context, name string) ([]byte, error) {
	reader, err := b.bucket.Object(b.key(name)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", backend.ErrNotFound, name)
		}
		return nil, fmt.Errorf("creating reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", name, err)
	}
	return data, nil
}

// Put uploads r under name, replacing any existing object.
func (b *Backend) Put(ctx context.Context, name string, r io.Reader) error {
	writer := b.bucket.Object(b.key(name)).NewWriter(ctx)
	if _, err := io.Copy(writer, r); err != nil {
		writer.Close()
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	return nil
}

// List returns the names of all objects under the prefix.
func (b *Backend) List(ctx context.Context) ([]string, error) {
	it := b.bucket.Objects(ctx, &storage.Query{Prefix: b.prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		names = append(names, b.name(attrs.Name))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the named object.
func (b *Backend) Delete(ctx context.Context, name string) error {
	if err := b.bucket.Object(b.key(name)).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", backend.ErrNotFound, name)
		}
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	return nil
}

// Close releases resources.
func (b *Backend) Close() error {
	return b.client.Close()
}

// key returns the full object key for a name.
func (b *Backend) key(name string) string {
	return b.prefix + name
}

// name strips the prefix from an object key.
func (b *Backend) name(key string) string {
	return strings.TrimPrefix(key, b.prefix)
}
