package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/discochess/shardpile"
)

func addRemoteFlags(cmd *cobra.Command) {
	cmd.Flags().String("s3-region", "", "AWS region for s3:// targets")
	cmd.Flags().String("s3-endpoint", "", "custom endpoint for S3-compatible services")
}

func newPublishCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish TARGET",
		Short: "Upload the store to object storage or another directory",
		Long: `Upload shard files, then the metadata file, to TARGET, and delete
shard objects there that the store no longer has.

TARGET is gs://bucket/prefix, s3://bucket/prefix or a local directory.

Examples:
  shardpile publish -d ./events gs://my-bucket/events
  shardpile publish -d ./events s3://my-bucket/events --s3-region eu-west-1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			b, err := a.openBackend(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer b.Close()

			res, err := shardpile.Publish(cmd.Context(), s, b)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Published %d objects to %s (%d stale shards deleted)\n", res.Uploaded, args[0], res.Deleted)
			return nil
		},
	}
	addRemoteFlags(cmd)
	return cmd
}
