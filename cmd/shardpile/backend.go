package main

import (
	"context"
	"strings"

	"github.com/discochess/shardpile/internal/backend"
	"github.com/discochess/shardpile/internal/backend/cachedbackend"
	"github.com/discochess/shardpile/internal/backend/cachedbackend/cachestrategy/lru"
	"github.com/discochess/shardpile/internal/backend/cachedbackend/memory"
	"github.com/discochess/shardpile/internal/backend/diskbackend"
	"github.com/discochess/shardpile/internal/backend/gcsbackend"
	"github.com/discochess/shardpile/internal/backend/s3backend"
)

// openBackend opens gs://bucket/prefix, s3://bucket/prefix or a local
// directory.
func (a *app) openBackend(ctx context.Context, target string) (backend.Backend, error) {
	if !strings.Contains(target, "://") {
		return diskbackend.New(target)
	}
	loc, err := backend.ParseURL(target)
	if err != nil {
		return nil, err
	}
	switch loc.Scheme {
	case "gs":
		return gcsbackend.New(ctx, loc.Bucket, gcsbackend.WithPrefix(loc.Prefix))
	default:
		var opts []s3backend.Option
		if region := a.v.GetString("s3-region"); region != "" {
			opts = append(opts, s3backend.WithRegion(region))
		}
		if endpoint := a.v.GetString("s3-endpoint"); endpoint != "" {
			opts = append(opts, s3backend.WithEndpoint(endpoint))
		}
		return s3backend.New(ctx, loc.Bucket, append(opts, s3backend.WithPrefix(loc.Prefix))...)
	}
}

// openCachedBackend wraps openBackend with an LRU cache of size objects.
func (a *app) openCachedBackend(ctx context.Context, target string, size int) (*cachedbackend.Backend, error) {
	b, err := a.openBackend(ctx, target)
	if err != nil {
		return nil, err
	}
	strategy, err := lru.New(size)
	if err != nil {
		b.Close()
		return nil, err
	}
	return cachedbackend.New(b, memory.New(strategy, a.collector)), nil
}
