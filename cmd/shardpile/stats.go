package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/discochess/shardpile/internal/balance"
	"github.com/discochess/shardpile/internal/ingest"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store configuration, size and shard balance",
		Long: `Display statistics about the store including:
- Partition count, key column, compression and strategy
- Total size on disk
- Rows per shard and a chi-square test of uniformity`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			entries, err := s.ExistingPartitions()
			if err != nil {
				return err
			}
			var size int64
			for _, e := range entries {
				if info, err := os.Stat(e.Path); err == nil {
					size += info.Size()
				}
			}

			cfg := s.Config()
			fmt.Fprintf(a.out, "Store:       %s\n", s.Dir())
			fmt.Fprintf(a.out, "Partitions:  %d (%d files)\n", cfg.Partitions, len(entries))
			fmt.Fprintf(a.out, "Key column:  %s\n", orNone(cfg.KeyColumn))
			fmt.Fprintf(a.out, "Compression: %s\n", cfg.Compression)
			fmt.Fprintf(a.out, "Strategy:    %s\n", cfg.StrategyName())
			fmt.Fprintf(a.out, "Total size:  %s\n\n", ingest.FormatBytes(size))

			counts, err := s.RowCounts(cmd.Context())
			if err != nil {
				return err
			}
			return balance.Analyze(counts).Write(a.out)
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
