// Package backend defines the object storage interface stores are
// published to and read back from.
//
// Objects are addressed by slash-separated names relative to the backend
// root, such as "meta.json" or "07.csv.gz". Payloads are stored as is;
// decoding shard codecs is up to the caller.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("backend: object not found")

// Backend stores named objects.
type Backend interface {
	// Get returns the content of the named object.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put creates or replaces the named object.
	Put(ctx context.Context, name string, r io.Reader) error

	// List returns the names of all objects, sorted.
	List(ctx context.Context) ([]string, error)

	// Delete removes the named object. Missing objects are not an error
	// for every implementation; callers must not rely on ErrNotFound.
	Delete(ctx context.Context, name string) error

	// Close releases any resources held by the backend.
	Close() error
}

// NormalizePrefix returns prefix with exactly one trailing slash, or the
// empty string.
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// Location is a parsed object storage URL.
type Location struct {
	Scheme string
	Bucket string
	Prefix string
}

// ParseURL parses "gs://bucket/prefix" or "s3://bucket/prefix". The prefix
// is normalized with NormalizePrefix.
func ParseURL(raw string) (Location, error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Location{}, fmt.Errorf("invalid object storage URL %q: missing scheme", raw)
	}
	switch scheme {
	case "gs", "s3":
	default:
		return Location{}, fmt.Errorf("invalid object storage URL %q: unsupported scheme %q", raw, scheme)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("invalid object storage URL %q: missing bucket name", raw)
	}
	return Location{Scheme: scheme, Bucket: bucket, Prefix: NormalizePrefix(prefix)}, nil
}
