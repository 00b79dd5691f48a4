package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aristath/marketsnap/internal/report"
)

func newSummarizeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize",
		Short: "Aggregate the stored artifacts into summary.json",
		Long: `Load every per-symbol artifact, skip the ones that fail validation,
and write rankings, sector statistics, the market overview and RSI extremes
to <data dir>/summary.json. A digest is printed to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, invalid, err := app.Container.SnapshotService.Summarize()
			for _, v := range invalid {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: skipping %s\n", v.Error())
			}
			if err != nil {
				return err
			}

			return report.WriteDigest(cmd.OutOrStdout(), summary)
		},
	}
}
