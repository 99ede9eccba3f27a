package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify the integrity of the store",
		Long: `Verify that all shards in the store are valid.

This command checks:
- Each shard can be decompressed and parsed
- Every shard starts with the same header
- Every row sits in the shard its key hashes to
- No shard is missing once any exists`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			problems, err := s.Verify(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range problems {
				fmt.Fprintf(a.out, "  ERROR: %s\n", p)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d problems found", len(problems))
			}
			fmt.Fprintln(a.out, "All shards verified successfully.")
			return nil
		},
	}
}
