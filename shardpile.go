// Package shardpile stores tabular data as a directory of hash-partitioned
// CSV shard files.
//
// Every row is routed to exactly one shard by a deterministic hash of its
// key column, so all rows sharing a key end up in the same file. Appends
// only ever add rows to shard files, and the directory carries a meta.json
// describing its layout so it can be reopened later, including by pdpart.
//
// Example usage:
//
//	layout, err := shardpile.Create("/data/events", "user_id", 16, shardpile.CompressionGzip)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store, err := layout.Init(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := store.Append(ctx, batch); err != nil {
//	    log.Fatal(err)
//	}
package shardpile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/discochess/shardpile/internal/codec"
	"github.com/discochess/shardpile/internal/meta"
	"github.com/discochess/shardpile/internal/shard"
	"github.com/discochess/shardpile/internal/shardlock"
	"github.com/discochess/shardpile/internal/shardpath"
	"github.com/discochess/shardpile/internal/table"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrInvalidConfig indicates a bad partition count, codec or strategy.
	ErrInvalidConfig = errors.New("shardpile: invalid configuration")

	// ErrMissingKeyColumn indicates an append on a store without a key column.
	ErrMissingKeyColumn = errors.New("shardpile: key column not set")

	// ErrNotImplemented indicates a requested feature that is not supported,
	// such as composite partition keys.
	ErrNotImplemented = errors.New("shardpile: not implemented")

	// ErrNotInitialized indicates use of a zero Store.
	ErrNotInitialized = errors.New("shardpile: store not initialized")

	// ErrInvalidStore indicates a directory without usable metadata.
	ErrInvalidStore = errors.New("shardpile: invalid store directory")

	// ErrInvalidBatch indicates a malformed batch or one lacking the key column.
	ErrInvalidBatch = errors.New("shardpile: invalid batch")

	// ErrSchemaMismatch indicates a batch whose columns differ from the
	// header of an existing shard file.
	ErrSchemaMismatch = errors.New("shardpile: batch columns differ from shard header")

	// ErrShardNotFound indicates a shard file that has not been created yet.
	ErrShardNotFound = errors.New("shardpile: shard file not found")
)

// Layout is a store configuration bound to a directory that has not been
// initialized. Only Init turns it into a usable Store.
type Layout struct {
	dir  string
	cfg  Config
	opts options
}

// Create validates a configuration for dir without touching the disk. The
// key column may be empty when the store is only going to be read.
func Create(dir, keyColumn string, partitions int, compression Compression, opts ...Option) (*Layout, error) {
	return NewLayout(dir, Config{
		Partitions:  partitions,
		KeyColumn:   keyColumn,
		Compression: compression,
	}, opts...)
}

// NewLayout validates cfg for dir without touching the disk.
func NewLayout(dir string, cfg Config, opts ...Option) (*Layout, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty directory", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Layout{dir: dir, cfg: cfg.normalized(), opts: buildOptions(opts)}, nil
}

// Dir returns the store directory.
func (l *Layout) Dir() string { return l.dir }

// Config returns the configuration Init will persist.
func (l *Layout) Config() Config { return l.cfg }

// Partitions lists the shard paths the configuration implies. No file
// exists yet.
func (l *Layout) Partitions() []shardpath.Entry {
	c, _ := l.cfg.Compression.codec()
	return shardpath.All(l.dir, l.cfg.Partitions, c.Extension())
}

// Init removes the directory and everything in it, recreates it empty and
// writes the metadata file. Shard files are created lazily by appends.
func (l *Layout) Init(ctx context.Context) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(l.dir); err != nil {
		return nil, fmt.Errorf("resetting store directory: %w", err)
	}
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	if err := meta.Write(l.dir, l.cfg.meta()); err != nil {
		return nil, err
	}

	l.opts.logger.Info("initialized store",
		zap.String("dir", l.dir),
		zap.Int("partitions", l.cfg.Partitions),
		zap.String("compression", l.cfg.Compression.String()),
		zap.String("strategy", l.cfg.StrategyName()),
	)
	return newStore(l.dir, l.cfg, l.opts)
}

// Store is an initialized store directory. A Store is safe for concurrent
// use by multiple goroutines, and several processes may append to the same
// directory: writers of a shard are serialized by a per-shard file lock.
type Store struct {
	dir      string
	cfg      Config
	codec    codec.Codec
	strategy shard.Strategy
	locks    *shardlock.Locker
	opts     options
}

func newStore(dir string, cfg Config, opts options) (*Store, error) {
	c, err := cfg.Compression.codec()
	if err != nil {
		return nil, err
	}
	strategy, err := shard.Lookup(cfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &Store{
		dir:      dir,
		cfg:      cfg,
		codec:    c,
		strategy: strategy,
		locks:    shardlock.New(dir),
		opts:     opts,
	}, nil
}

// Open reopens an initialized store directory from its metadata file. The
// key column recorded in the metadata is used unless WithKeyColumn is given.
func Open(dir string, opts ...Option) (*Store, error) {
	m, err := meta.Read(dir)
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
	s, err := newStore(dir, cfg, o)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStore, err)
	}
	o.logger.Debug("opened store",
		zap.String("dir", dir),
		zap.Int("partitions", cfg.Partitions),
		zap.String("keyColumn", cfg.KeyColumn),
	)
	return s, nil
}

func (s *Store) ready() error {
	if s == nil || s.dir == "" || s.codec == nil {
		return ErrNotInitialized
	}
	return nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Config returns the store configuration.
func (s *Store) Config() Config { return s.cfg }

// WithKeyColumn returns a handle on the same directory that partitions by
// column. The metadata file is not rewritten.
func (s *Store) WithKeyColumn(column string) (*Store, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	cfg := s.cfg
	cfg.KeyColumn = column
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out := *s
	out.cfg = cfg
	return &out, nil
}

// Partitions lists the path of every shard of the store, in ID order,
// whether or not the file exists yet.
func (s *Store) Partitions() []shardpath.Entry {
	if s.ready() != nil {
		return nil
	}
	return shardpath.All(s.dir, s.cfg.Partitions, s.codec.Extension())
}

// ExistingPartitions lists the shard files present on disk, in ID order.
func (s *Store) ExistingPartitions() ([]shardpath.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return shardpath.Scan(s.dir, s.cfg.Partitions, s.codec.Extension())
}

// ReadPartition decodes one shard file. It returns ErrShardNotFound when
// no append has created the shard yet.
func (s *Store) ReadPartition(ctx context.Context, id int) (table.Batch, error) {
	if err := s.ready(); err != nil {
		return table.Batch{}, err
	}
	if id < 0 || id >= s.cfg.Partitions {
		return table.Batch{}, fmt.Errorf("%w: shard %d out of range [0, %d)", ErrInvalidConfig, id, s.cfg.Partitions)
	}
	if err := ctx.Err(); err != nil {
		return table.Batch{}, err
	}
	return s.readFile(shardpath.Path(s.dir, id, s.cfg.Partitions, s.codec.Extension()))
}

func (s *Store) readFile(path string) (table.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return table.Batch{}, fmt.Errorf("%w: %s", ErrShardNotFound, filepath.Base(path))
		}
		return table.Batch{}, fmt.Errorf("opening shard: %w", err)
	}
	defer f.Close()

	r, err := s.codec.Reader(f)
	if err != nil {
		return table.Batch{}, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	defer r.Close()

	b, err := table.Read(r)
	if err != nil {
		return table.Batch{}, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return b, nil
}

// Scan calls fn with the contents of every existing shard, in ID order,
// stopping at the first error.
func (s *Store) Scan(ctx context.Context, fn func(id int, b table.Batch) error) error {
	entries, err := s.ExistingPartitions()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := s.readFile(e.Path)
		if err != nil {
			return err
		}
		if err := fn(e.ID, b); err != nil {
			return err
		}
	}
	return nil
}

// ReadAll returns the rows of every shard concatenated in shard order.
func (s *Store) ReadAll(ctx context.Context) (table.Batch, error) {
	var batches []table.Batch
	err := s.Scan(ctx, func(_ int, b table.Batch) error {
		batches = append(batches, b)
		return nil
	})
	if err != nil {
		return table.Batch{}, err
	}
	return table.Concat(batches...)
}

// RowCounts returns the number of data rows in every shard, indexed by
// shard ID. Shards without a file count as zero.
func (s *Store) RowCounts(ctx context.Context) ([]int64, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	counts := make([]int64, s.cfg.Partitions)
	err := s.Scan(ctx, func(id int, b table.Batch) error {
		counts[id] = int64(b.Len())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
