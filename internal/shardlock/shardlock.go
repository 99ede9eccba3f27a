// Package shardlock serializes writers of a shard file.
//
// Locks are advisory flock(2) locks on files under a hidden directory of
// the store, one lock file per shard. They exclude concurrent writers in
// the same process as well as in other processes, while leaving shard
// files themselves untouched for readers.
package shardlock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Dir is the name of the lock directory inside a store directory.
const Dir = ".lock"

// DefaultRetryDelay is how often a blocked Lock retries.
const DefaultRetryDelay = 5 * time.Millisecond

// Locker hands out per-shard exclusive locks for one store directory.
type Locker struct {
	dir        string
	retryDelay time.Duration
}

// New returns a Locker for the store rooted at storeDir.
func New(storeDir string) *Locker {
	return &Locker{
		dir:        filepath.Join(storeDir, Dir),
		retryDelay: DefaultRetryDelay,
	}
}

// Lock blocks until the lock for the named shard is held or ctx is done.
// The returned function releases it.
func (l *Locker) Lock(ctx context.Context, shardName string) (func() error, error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	fl := flock.New(filepath.Join(l.dir, shardName+".lock"))
	locked, err := fl.TryLockContext(ctx, l.retryDelay)
	if err != nil {
		return nil, fmt.Errorf("locking shard %s: %w", shardName, err)
	}
	if !locked {
		return nil, fmt.Errorf("locking shard %s: %w", shardName, ctx.Err())
	}
	return fl.Unlock, nil
}
