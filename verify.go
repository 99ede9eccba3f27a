package shardpile

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/discochess/shardpile/internal/shardpath"
	"github.com/discochess/shardpile/internal/table"
)

// Problem is one defect found by Verify.
type Problem struct {
	ShardID int
	Path    string
	Reason  string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s", filepath.Base(p.Path), p.Reason)
}

// Verify checks every shard file of the store: each must decode and carry
// the same header, and when the key column is known every row must hash to
// the shard holding it. Once any shard exists, all of them must.
//
// Problems are returned as data. The error is reserved for failures to
// inspect the store at all.
func (s *Store) Verify(ctx context.Context) ([]Problem, error) {
	entries, err := s.ExistingPartitions()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	var problems []Problem
	report := func(e shardpath.Entry, format string, args ...any) {
		problems = append(problems, Problem{ShardID: e.ID, Path: e.Path, Reason: fmt.Sprintf(format, args...)})
	}

	present := make(map[int]bool, len(entries))
	var header []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		present[e.ID] = true

		b, err := s.readFile(e.Path)
		if err != nil {
			report(e, "unreadable: %v", err)
			continue
		}
		if header == nil {
			header = b.Columns
		} else if !table.SameColumns(header, b.Columns) {
			report(e, "header %v differs from %v", b.Columns, header)
			continue
		}
		if err := b.Validate(); err != nil {
			report(e, "%v", err)
			continue
		}
		if s.cfg.KeyColumn == "" {
			continue
		}
		keys, err := b.Column(s.cfg.KeyColumn)
		if err != nil {
			report(e, "key column %q missing", s.cfg.KeyColumn)
			continue
		}
		for i, k := range keys {
			if got := s.strategy.ShardID(k, s.cfg.Partitions); got != e.ID {
				report(e, "row %d key %q belongs to shard %d", i+1, k, got)
				break
			}
		}
	}

	for _, e := range s.Partitions() {
		if !present[e.ID] {
			report(e, "missing")
		}
	}
	return problems, nil
}
