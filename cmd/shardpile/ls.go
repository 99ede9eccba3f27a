package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/discochess/shardpile/internal/ingest"
)

func newLsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List shard files",
		Long: `List the shard files present on disk with their sizes.

With --all, list every shard path of the configuration, marking the ones
not created yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			entries := s.Partitions()
			if !a.v.GetBool("all") {
				if entries, err = s.ExistingPartitions(); err != nil {
					return err
				}
			}
			for _, e := range entries {
				info, err := os.Stat(e.Path)
				switch {
				case err == nil:
					fmt.Fprintf(a.out, "%s\t%s\n", filepath.Base(e.Path), ingest.FormatBytes(info.Size()))
				case os.IsNotExist(err):
					fmt.Fprintf(a.out, "%s\t-\n", filepath.Base(e.Path))
				default:
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "list every configured shard, not only existing files")
	return cmd
}
