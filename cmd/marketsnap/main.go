// Package main is the entry point for marketsnap, which computes technical
// indicator snapshots for a list of symbols and aggregates them into a
// cross-sectional market summary.
//
// Commands:
//   - analyze:   per-symbol indicators and metrics, one JSON artifact each
//   - summarize: rankings, sector statistics and market overview
//   - serve:     read-only HTTP API over the artifacts
//   - schedule:  cron-driven analyze + summarize (+ publish)
//   - publish:   upload artifacts to an S3-compatible bucket
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// SIGINT/SIGTERM cancel the command context; long-running commands
	// shut down gracefully when it is done
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		os.Exit(1)
	}
}
