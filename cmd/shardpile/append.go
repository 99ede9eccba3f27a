package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/discochess/shardpile"
	"github.com/discochess/shardpile/internal/ingest"
)

func addIngestFlags(cmd *cobra.Command) {
	cmd.Flags().Int("chunk-rows", ingest.DefaultChunkRows, "rows appended per chunk")
	cmd.Flags().Bool("progress", false, "print progress to stderr")
}

func (a *app) ingester() *ingest.Ingester {
	opts := []ingest.Option{
		ingest.WithChunkRows(a.v.GetInt("chunk-rows")),
		ingest.WithLogger(a.logger.Named("ingest")),
	}
	if a.v.GetBool("progress") {
		opts = append(opts, ingest.WithProgress(ingest.NewPrinter(os.Stderr)))
	}
	return ingest.New(opts...)
}

func newAppendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append SOURCE...",
		Short: "Append CSV sources to an existing store",
		Long: `Append rows from CSV files, URLs or standard input ("-") to the store.

Sources ending in .gz or .zst are decompressed. The store is opened from
its metadata; --by overrides the recorded key column.

Append is at-least-once: if it fails part way, re-running it duplicates
the rows already written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			return a.appendSources(cmd, s, args)
		},
	}
	cmd.Flags().String("by", "", "key column, overriding the store metadata")
	addIngestFlags(cmd)
	return cmd
}

func (a *app) appendSources(cmd *cobra.Command, s *shardpile.Store, sources []string) error {
	in := a.ingester()
	var total int64
	for _, src := range sources {
		var (
			sum ingest.Summary
			err error
		)
		if src == "-" {
			sum, err = in.IngestReader(cmd.Context(), s, cmd.InOrStdin())
		} else {
			sum, err = in.Ingest(cmd.Context(), s, src)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
		total += sum.Rows
	}
	fmt.Fprintf(a.out, "Appended %d rows to %s\n", total, s.Dir())
	return nil
}
