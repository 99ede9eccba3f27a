package shardpile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/shardpile/internal/backend"
	"github.com/discochess/shardpile/internal/codec"
	"github.com/discochess/shardpile/internal/meta"
	"github.com/discochess/shardpile/internal/shard"
	"github.com/discochess/shardpile/internal/shardpath"
	"github.com/discochess/shardpile/internal/stats"
	"github.com/discochess/shardpile/internal/table"
)

// PublishResult summarizes one Publish call.
type PublishResult struct {
	Uploaded int
	Deleted  int
}

// Publish copies a store to a backend. Shard files are uploaded first and
// the metadata file last, so a reader that finds metadata finds its
// shards. Shard objects the store no longer has are deleted afterwards.
func Publish(ctx context.Context, s *Store, b backend.Backend) (PublishResult, error) {
	entries, err := s.ExistingPartitions()
	if err != nil {
		return PublishResult{}, err
	}

	current := make(map[string]bool, len(entries)+1)
	var uploaded atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.workers)
	for _, e := range entries {
		name := filepath.Base(e.Path)
		current[name] = true
		g.Go(func() error {
			if err := putFile(gctx, b, name, e.Path); err != nil {
				return fmt.Errorf("uploading shard %d: %w", e.ID, err)
			}
			uploaded.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PublishResult{}, err
	}

	current[meta.Filename] = true
	if err := putFile(ctx, b, meta.Filename, filepath.Join(s.dir, meta.Filename)); err != nil {
		return PublishResult{}, fmt.Errorf("uploading metadata: %w", err)
	}
	res := PublishResult{Uploaded: int(uploaded.Load()) + 1}

	names, err := b.List(ctx)
	if err != nil {
		return res, err
	}
	for _, name := range names {
		if current[name] || !shardpath.IsShardName(name) {
			continue
		}
		if err := b.Delete(ctx, name); err != nil && !errors.Is(err, backend.ErrNotFound) {
			// Stale shards are invisible to readers of the new metadata.
			s.opts.logger.Warn("failed to delete stale shard", zap.String("name", name), zap.Error(err))
			continue
		}
		res.Deleted++
	}

	s.opts.logger.Info("published store",
		zap.String("dir", s.dir),
		zap.Int("uploaded", res.Uploaded),
		zap.Int("deleted", res.Deleted),
	)
	return res, nil
}

func putFile(ctx context.Context, b backend.Backend, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return b.Put(ctx, name, f)
}

// Remote is a read-only view of a store published to a backend.
type Remote struct {
	backend  backend.Backend
	cfg      Config
	codec    codec.Codec
	strategy shard.Strategy
	opts     options
}

// NewRemote loads the metadata of a published store.
func NewRemote(ctx context.Context, b backend.Backend, opts ...Option) (*Remote, error) {
	data, err := b.Get(ctx, meta.Filename)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidStore, meta.ErrNotFound)
		}
		return nil, fmt.Errorf("fetching metadata: %w", err)
	}
	m, err := meta.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStore, err)
	}

	o := buildOptions(opts)
	cfg := configFromMeta(m)
	if o.keyColumn != "" {
		cfg.KeyColumn = o.keyColumn
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStore, err)
	}
	c, err := cfg.Compression.codec()
	if err != nil {
		return nil, err
	}
	strategy, err := shard.Lookup(cfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStore, err)
	}
	return &Remote{backend: b, cfg: cfg, codec: c, strategy: strategy, opts: o}, nil
}

// Config returns the published configuration.
func (r *Remote) Config() Config { return r.cfg }

// Partitions returns the object name of every shard, in ID order.
func (r *Remote) Partitions() []string {
	names := make([]string, r.cfg.Partitions)
	for id := range names {
		names[id] = shardpath.Name(id, r.cfg.Partitions, r.codec.Extension())
	}
	return names
}

// ReadPartition fetches and decodes one shard.
func (r *Remote) ReadPartition(ctx context.Context, id int) (table.Batch, error) {
	if id < 0 || id >= r.cfg.Partitions {
		return table.Batch{}, fmt.Errorf("%w: shard %d out of range [0, %d)", ErrInvalidConfig, id, r.cfg.Partitions)
	}
	name := shardpath.Name(id, r.cfg.Partitions, r.codec.Extension())

	r.opts.stats.IncCounter(stats.MetricObjectFetches, 1)
	data, err := r.backend.Get(ctx, name)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return table.Batch{}, fmt.Errorf("%w: %s", ErrShardNotFound, name)
		}
		return table.Batch{}, fmt.Errorf("fetching shard %d: %w", id, err)
	}

	dec, err := r.codec.Reader(bytes.NewReader(data))
	if err != nil {
		return table.Batch{}, fmt.Errorf("decoding %s: %w", name, err)
	}
	defer dec.Close()

	b, err := table.Read(dec)
	if err != nil {
		return table.Batch{}, fmt.Errorf("reading %s: %w", name, err)
	}
	return b, nil
}

// Lookup returns the rows whose key column equals key. Only the shard the
// key hashes to is fetched.
func (r *Remote) Lookup(ctx context.Context, key string) (table.Batch, error) {
	if r.cfg.KeyColumn == "" {
		return table.Batch{}, ErrMissingKeyColumn
	}
	b, err := r.ReadPartition(ctx, r.strategy.ShardID(key, r.cfg.Partitions))
	if err != nil {
		return table.Batch{}, err
	}
	return filterKey(b, r.cfg.KeyColumn, key)
}

// Lookup returns the rows whose key column equals key, reading only the
// shard the key hashes to.
func (s *Store) Lookup(ctx context.Context, key string) (table.Batch, error) {
	if err := s.ready(); err != nil {
		return table.Batch{}, err
	}
	if s.cfg.KeyColumn == "" {
		return table.Batch{}, ErrMissingKeyColumn
	}
	b, err := s.ReadPartition(ctx, s.strategy.ShardID(key, s.cfg.Partitions))
	if err != nil {
		return table.Batch{}, err
	}
	return filterKey(b, s.cfg.KeyColumn, key)
}

func filterKey(b table.Batch, column, key string) (table.Batch, error) {
	keys, err := b.Column(column)
	if err != nil {
		return table.Batch{}, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	var idx []int
	for i, k := range keys {
		if k == key {
			idx = append(idx, i)
		}
	}
	return b.Select(idx), nil
}
