package shardpile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/shardpile/internal/shard"
	"github.com/discochess/shardpile/internal/shardpath"
	"github.com/discochess/shardpile/internal/stats"
	"github.com/discochess/shardpile/internal/table"
)

// AppendResult summarizes one Append call.
type AppendResult struct {
	// Rows is the number of data rows written.
	Rows int

	// ShardsCreated counts shard files that did not exist before the call.
	ShardsCreated int

	// ShardsWritten counts shard files that received at least one row.
	ShardsWritten int
}

// Append routes every row of b to its shard and appends it there. Shard
// files missing from disk are created with a header line first, so after
// Append returns every shard of the store exists and starts with a header.
//
// Rows keep their relative batch order within a shard. Existing rows are
// never rewritten.
//
// Append is at-least-once. Shards are written independently, so a failed
// call may leave some shards updated, and retrying the whole batch then
// duplicates the rows those shards already received.
func (s *Store) Append(ctx context.Context, b table.Batch) (AppendResult, error) {
	if err := s.ready(); err != nil {
		return AppendResult{}, err
	}
	if s.cfg.KeyColumn == "" {
		return AppendResult{}, ErrMissingKeyColumn
	}
	if err := b.Validate(); err != nil {
		return AppendResult{}, fmt.Errorf("%w: %w", ErrInvalidBatch, err)
	}
	keys, err := b.Column(s.cfg.KeyColumn)
	if err != nil {
		return AppendResult{}, fmt.Errorf("%w: %w", ErrInvalidBatch, err)
	}

	start := time.Now()
	n := s.cfg.Partitions
	groups := shard.Group(shard.Assign(s.strategy, keys, n), n)

	created := make([]bool, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.workers)
	for id := range n {
		rows := b.Select(groups[id])
		g.Go(func() error {
			c, err := s.appendShard(gctx, id, rows)
			if err != nil {
				return fmt.Errorf("appending shard %d: %w", id, err)
			}
			created[id] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return AppendResult{}, err
	}

	res := AppendResult{Rows: b.Len()}
	for id := range n {
		if created[id] {
			res.ShardsCreated++
		}
		if len(groups[id]) > 0 {
			res.ShardsWritten++
		}
	}

	s.opts.stats.IncCounter(stats.MetricAppends, 1)
	s.opts.stats.IncCounter(stats.MetricRowsAppended, int64(res.Rows))
	s.opts.stats.IncCounter(stats.MetricShardsCreated, int64(res.ShardsCreated))
	s.opts.stats.IncCounter(stats.MetricShardWrites, int64(res.ShardsWritten))
	stats.ObserveSince(s.opts.stats, stats.MetricAppendSeconds, start)

	s.opts.logger.Debug("appended batch",
		zap.String("dir", s.dir),
		zap.Int("rows", res.Rows),
		zap.Int("shardsWritten", res.ShardsWritten),
		zap.Int("shardsCreated", res.ShardsCreated),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// appendShard writes rows to one shard file while holding its lock. It
// reports whether the file was created (or found empty) by this call.
func (s *Store) appendShard(ctx context.Context, id int, rows table.Batch) (bool, error) {
	name := shardpath.Name(id, s.cfg.Partitions, s.codec.Extension())
	path := filepath.Join(s.dir, name)

	unlock, err := s.locks.Lock(ctx, name)
	if err != nil {
		return false, err
	}
	defer unlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	// An empty file is also what a crash between create and header write
	// leaves behind, so it gets a header too.
	fresh := info.Size() == 0
	if !fresh && rows.Len() == 0 {
		return false, nil
	}
	if !fresh {
		header, err := s.readHeader(path)
		if err != nil {
			return false, err
		}
		if !table.SameColumns(header, rows.Columns) {
			return false, fmt.Errorf("%w: %s has %v, batch has %v", ErrSchemaMismatch, name, header, rows.Columns)
		}
	}

	w, err := s.codec.Writer(f)
	if err != nil {
		return false, err
	}
	if err := table.Write(w, rows, fresh); err != nil {
		w.Close()
		return false, err
	}
	if err := w.Close(); err != nil {
		return false, err
	}
	return fresh, f.Close()
}

func (s *Store) readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := s.codec.Reader(f)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return table.ReadHeader(r)
}
