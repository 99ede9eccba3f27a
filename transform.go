package shardpile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/discochess/shardpile/internal/shardpath"
	"github.com/discochess/shardpile/internal/table"
)

// TransformFunc maps the aligned partitions of the inputs, one batch per
// input in input order, to the rows of the output partition. A partition
// an input never created is passed as an empty Batch.
type TransformFunc func(id int, in []table.Batch) (table.Batch, error)

// Transform builds a new store at outDir whose shard i is fn applied to
// shard i of every input. The inputs must agree on partition count and
// strategy, so rows sharing a key meet in the same call. The output takes
// the first input's configuration and is reset before writing.
func Transform(ctx context.Context, inputs []*Store, outDir string, fn TransformFunc, opts ...Option) (*Store, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no inputs", ErrInvalidConfig)
	}
	for i, in := range inputs {
		if err := in.ready(); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		if in.cfg.Partitions != inputs[0].cfg.Partitions || in.cfg.StrategyName() != inputs[0].cfg.StrategyName() {
			return nil, fmt.Errorf("%w: input %d is partitioned %d/%s, input 0 is %d/%s",
				ErrInvalidConfig, i, in.cfg.Partitions, in.cfg.StrategyName(),
				inputs[0].cfg.Partitions, inputs[0].cfg.StrategyName())
		}
	}

	layout, err := NewLayout(outDir, inputs[0].cfg, opts...)
	if err != nil {
		return nil, err
	}
	out, err := layout.Init(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(out.opts.workers)
	for id := range out.cfg.Partitions {
		g.Go(func() error {
			batches := make([]table.Batch, len(inputs))
			for i, in := range inputs {
				b, err := in.ReadPartition(gctx, id)
				if err != nil && !errors.Is(err, ErrShardNotFound) {
					return fmt.Errorf("reading shard %d of input %d: %w", id, i, err)
				}
				batches[i] = b
			}
			res, err := fn(id, batches)
			if err != nil {
				return fmt.Errorf("transforming shard %d: %w", id, err)
			}
			if len(res.Columns) == 0 {
				return fmt.Errorf("%w: transform of shard %d returned no columns", ErrInvalidBatch, id)
			}
			if err := res.Validate(); err != nil {
				return fmt.Errorf("%w: shard %d: %w", ErrInvalidBatch, id, err)
			}
			if err := out.writeShard(gctx, id, res); err != nil {
				return fmt.Errorf("writing shard %d: %w", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.opts.logger.Info("transformed store",
		zap.String("dir", outDir),
		zap.Int("inputs", len(inputs)),
		zap.Int("partitions", out.cfg.Partitions),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// writeShard replaces a shard file with b, header included.
func (s *Store) writeShard(ctx context.Context, id int, b table.Batch) error {
	name := shardpath.Name(id, s.cfg.Partitions, s.codec.Extension())
	unlock, err := s.locks.Lock(ctx, name)
	if err != nil {
		return err
	}
	defer unlock()

	f, err := os.OpenFile(shardpath.Path(s.dir, id, s.cfg.Partitions, s.codec.Extension()),
		os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := s.codec.Writer(f)
	if err != nil {
		return err
	}
	if err := table.Write(w, b, true); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return f.Close()
}
