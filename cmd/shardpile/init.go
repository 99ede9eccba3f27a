package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/discochess/shardpile"
	"github.com/discochess/shardpile/internal/shard"
)

// DefaultPartitions matches the pdpart default.
const DefaultPartitions = 200

func addLayoutFlags(cmd *cobra.Command) {
	cmd.Flags().String("by", "", "key column rows are partitioned on")
	cmd.Flags().IntP("partitions", "n", DefaultPartitions, "number of shards")
	cmd.Flags().StringP("compression", "c", "none", "shard compression: none, gzip, zstd")
	cmd.Flags().String("strategy", shard.DefaultName, "partition function: "+strings.Join(shard.Names(), ", "))
}

func newInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty store, deleting anything in the directory",
		Long: `Reset the store directory and write its metadata file.

WARNING: everything in --dir is removed first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.initStore(cmd.Context())
			if err != nil {
				return err
			}
			cfg := s.Config()
			fmt.Fprintf(a.out, "Initialized %s: %d partitions by %q, compression %s, strategy %s\n",
				s.Dir(), cfg.Partitions, cfg.KeyColumn, cfg.Compression, cfg.StrategyName())
			return nil
		},
	}
	addLayoutFlags(cmd)
	return cmd
}

// initStore creates and initializes the store described by the layout flags.
func (a *app) initStore(ctx context.Context) (*shardpile.Store, error) {
	compression, err := shardpile.ParseCompression(a.v.GetString("compression"))
	if err != nil {
		return nil, err
	}
	layout, err := shardpile.NewLayout(a.v.GetString("dir"), shardpile.Config{
		Partitions:  a.v.GetInt("partitions"),
		KeyColumn:   a.v.GetString("by"),
		Compression: compression,
		Strategy:    a.v.GetString("strategy"),
	}, a.storeOptions()...)
	if err != nil {
		return nil, err
	}
	return layout.Init(ctx)
}
