package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPublishCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Upload the artifacts to the configured R2 bucket",
		Long: `Upload summary.json, last_run.json and every per-symbol artifact to
<R2_PREFIX>/latest/, plus a tar.gz snapshot under <R2_PREFIX>/snapshots/.
Snapshots older than R2_SNAPSHOT_RETENTION_DAYS are removed afterwards,
always keeping the newest three.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := app.Container.SnapshotService.Publish(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Published %d artifacts (%d bytes), snapshot %s\n",
				result.Uploaded, result.Bytes, result.SnapshotKey)
			return nil
		},
	}
}
