package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/marketsnap/internal/config"
	"github.com/aristath/marketsnap/internal/di"
	"github.com/aristath/marketsnap/pkg/logger"
)

// App carries what every command needs once the root has initialized
type App struct {
	Config    *config.Config
	Log       zerolog.Logger
	Container *di.Container
}

func newRootCmd() *cobra.Command {
	app := &App{}

	rootCmd := &cobra.Command{
		Use:   "marketsnap",
		Short: "Technical indicator snapshots and market summaries",
		Long: `marketsnap fetches daily price history for a set of symbols, computes
moving averages, RSI, MACD, Bollinger Bands and period metrics for each one,
and aggregates the results into rankings, sector statistics and a market
overview. Configuration is read from the environment (and .env).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return app.close()
		},
	}
	rootCmd.PersistentFlags().String("log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newSummarizeCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newScheduleCmd(app))
	rootCmd.AddCommand(newPublishCmd(app))

	return rootCmd
}

func (a *App) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	a.Config = cfg
	a.Log = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(a.Log)

	container, err := di.Wire(cmd.Context(), cfg, a.Log)
	if err != nil {
		return fmt.Errorf("failed to wire dependencies: %w", err)
	}
	a.Container = container
	return nil
}

func (a *App) close() error {
	if a.Container == nil {
		return nil
	}
	return a.Container.Close()
}
