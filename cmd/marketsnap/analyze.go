package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/marketsnap/internal/domain"
	"github.com/aristath/marketsnap/internal/symbols"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [SYMBOL...]",
		Short: "Compute indicators and metrics for each symbol",
		Long: `Fetch daily history for every symbol and write one JSON artifact per
symbol under <data dir>/stocks. A symbol that cannot be analyzed is reported
as failed and never stops the others.

With --group N the symbols come from group_N of the symbols file and any
explicit symbols are ignored.`,
		Example: `  marketsnap analyze AAPL MSFT
  marketsnap analyze --group 2
  marketsnap analyze NVDA --as-of 2026-06-30 --window-start 2026-01-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			group, _ := cmd.Flags().GetInt("group")
			list, err := resolveSymbols(app.Config.SymbolsFile, args, group)
			if err != nil {
				return err
			}

			asOf, _ := cmd.Flags().GetString("as-of")
			windowStart, _ := cmd.Flags().GetString("window-start")
			lookbackStart, _ := cmd.Flags().GetString("lookback-start")
			window, err := parseWindow(asOf, windowStart, lookbackStart, time.Now())
			if err != nil {
				return err
			}

			batch, err := app.Container.SnapshotService.Analyze(cmd.Context(), list, window)
			if batch != nil {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s (as of %s, %s)\n", batch.RunID, batch.AsOf, batch.Duration)
				fmt.Fprintf(out, "Analyzed %d symbols: %d succeeded, %d failed\n",
					batch.Total(), len(batch.Succeeded), len(batch.Failed))
				for _, f := range batch.Failed {
					fmt.Fprintf(out, "  %-8s %s\n", f.Symbol, f.Reason)
				}
			}
			return err
		},
	}

	cmd.Flags().Int("group", 0, "analyze group_N from the symbols file")
	cmd.Flags().String("as-of", "", "last date of the analysis window (YYYY-MM-DD, default today)")
	cmd.Flags().String("window-start", "", "first date of the analysis window (default January 1 of the as-of year)")
	cmd.Flags().String("lookback-start", "", "first date fetched for indicator warm-up (default one year before the window start)")

	return cmd
}

// resolveSymbols loads the symbols file only when a group is requested
func resolveSymbols(symbolsFile string, args []string, group int) ([]string, error) {
	var groups *symbols.Groups
	if group > 0 {
		loaded, err := symbols.Load(symbolsFile)
		if err != nil {
			return nil, err
		}
		groups = loaded
	}
	return symbols.Resolve(groups, args, group)
}

// parseWindow starts from the year-to-date default for the as-of date and
// applies any explicit boundaries
func parseWindow(asOf, windowStart, lookbackStart string, now time.Time) (domain.Window, error) {
	end := domain.Day(now)
	if asOf != "" {
		parsed, err := domain.ParseDate(asOf)
		if err != nil {
			return domain.Window{}, fmt.Errorf("invalid --as-of: %w", err)
		}
		end = parsed
	}

	window := domain.DefaultWindow(end)
	if windowStart != "" {
		parsed, err := domain.ParseDate(windowStart)
		if err != nil {
			return domain.Window{}, fmt.Errorf("invalid --window-start: %w", err)
		}
		window.WindowStart = parsed
		window.LookbackStart = parsed.AddDate(-1, 0, 0)
	}
	if lookbackStart != "" {
		parsed, err := domain.ParseDate(lookbackStart)
		if err != nil {
			return domain.Window{}, fmt.Errorf("invalid --lookback-start: %w", err)
		}
		window.LookbackStart = parsed
	}

	if err := window.Validate(); err != nil {
		return domain.Window{}, err
	}
	return window, nil
}
