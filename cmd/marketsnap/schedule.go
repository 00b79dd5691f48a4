package main

import (
	"github.com/spf13/cobra"

	"github.com/aristath/marketsnap/internal/di"
	"github.com/aristath/marketsnap/internal/scheduler"
)

func newScheduleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run snapshots on MARKETSNAP_SCHEDULE until interrupted",
		Long: `Analyze every symbol in the symbols file with a year-to-date window,
rebuild the summary and, when MARKETSNAP_PUBLISH_ON_RUN is set, publish the
artifacts. Runs on the six-field cron spec in MARKETSNAP_SCHEDULE. The price
cache is pruned and compacted daily at 04:00.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sched := scheduler.New(app.Log)
			jobs, err := di.RegisterJobs(app.Container, app.Config, sched, app.Log)
			if err != nil {
				return err
			}

			if now, _ := cmd.Flags().GetBool("now"); now {
				if err := sched.RunNow(jobs.Snapshot); err != nil {
					app.Log.Error().Err(err).Msg("Initial snapshot failed")
				}
			}

			sched.Start()
			<-cmd.Context().Done()

			app.Log.Info().Msg("Stopping scheduler...")
			sched.Stop()
			return nil
		},
	}
	cmd.Flags().Bool("now", false, "run one snapshot immediately before waiting for the schedule")
	return cmd
}
