package main

import (
	"github.com/spf13/cobra"
)

func newIngestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest SOURCE...",
		Short: "Reset the store and load CSV sources into it",
		Long: `Initialize the store from the layout flags, then append every source.

This is init followed by append. Everything in --dir is removed first.

Examples:
  shardpile ingest -d ./events --by user_id -n 64 -c zstd events.csv.gz
  shardpile ingest -d ./events --by user_id https://example.com/events.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.initStore(cmd.Context())
			if err != nil {
				return err
			}
			return a.appendSources(cmd, s, args)
		},
	}
	addLayoutFlags(cmd)
	addIngestFlags(cmd)
	return cmd
}
