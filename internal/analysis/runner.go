package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/marketsnap/internal/domain"
)

// DefaultWorkers is used when a runner is created with a non-positive limit.
const DefaultWorkers = 4

// Failure names a symbol that produced no record and the reason.
type Failure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// BatchReport summarises one run. Succeeded and Failed keep input order.
type BatchReport struct {
	RunID     uuid.UUID `json:"runId"`
	AsOf      string    `json:"asOf"`
	Succeeded []string  `json:"succeeded"`
	Failed    []Failure `json:"failed"`
	Duration  string    `json:"duration"`
}

// Total returns the number of symbols the run accounted for.
func (r *BatchReport) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

// Runner processes a batch of symbols through an Analyzer.
type Runner struct {
	analyzer *Analyzer
	sink     RecordSink
	window   domain.Window
	workers  int
	log      zerolog.Logger
}

// NewRunner creates a runner. Records are written to sink as they complete.
func NewRunner(analyzer *Analyzer, sink RecordSink, window domain.Window, workers int, log zerolog.Logger) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Runner{
		analyzer: analyzer,
		sink:     sink,
		window:   window,
		workers:  workers,
		log:      log.With().Str("component", "runner").Logger(),
	}
}

type outcome struct {
	ok     bool
	reason string
}

// Run analyzes every symbol. A failing symbol is reported in the batch and
// never stops the others. When ctx is cancelled no new symbols are started;
// the ones not started are reported as failed and ctx.Err() is returned with
// the partial report.
func (r *Runner) Run(ctx context.Context, symbols []string) (*BatchReport, error) {
	started := time.Now()
	report := &BatchReport{
		RunID:     uuid.New(),
		AsOf:      r.window.AnalysisDate(),
		Succeeded: []string{},
		Failed:    []Failure{},
	}

	r.log.Info().
		Str("run_id", report.RunID.String()).
		Str("as_of", report.AsOf).
		Int("symbols", len(symbols)).
		Int("workers", r.workers).
		Msg("Starting analysis run")

	outcomes := make([]outcome, len(symbols))
	g := new(errgroup.Group)
	g.SetLimit(r.workers)

	for i, symbol := range symbols {
		if ctx.Err() != nil {
			outcomes[i] = outcome{reason: ctx.Err().Error()}
			continue
		}
		i, symbol := i, symbol
		g.Go(func() error {
			outcomes[i] = r.process(ctx, symbol)
			return nil
		})
	}
	_ = g.Wait()

	for i, symbol := range symbols {
		if outcomes[i].ok {
			report.Succeeded = append(report.Succeeded, symbol)
			continue
		}
		report.Failed = append(report.Failed, Failure{Symbol: symbol, Reason: outcomes[i].reason})
	}
	report.Duration = time.Since(started).Round(time.Millisecond).String()

	r.log.Info().
		Str("run_id", report.RunID.String()).
		Int("succeeded", len(report.Succeeded)).
		Int("failed", len(report.Failed)).
		Str("duration", report.Duration).
		Msg("Analysis run complete")

	return report, ctx.Err()
}

func (r *Runner) process(ctx context.Context, symbol string) outcome {
	if ctx.Err() != nil {
		return outcome{reason: ctx.Err().Error()}
	}

	record, err := r.analyzer.Analyze(ctx, symbol, r.window)
	if err != nil {
		r.log.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol")
		return outcome{reason: err.Error()}
	}

	if r.sink != nil {
		if err := r.sink.SaveRecord(record); err != nil {
			r.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to save record")
			return outcome{reason: fmt.Sprintf("save record: %v", err)}
		}
	}

	r.log.Debug().
		Str("symbol", symbol).
		Float64("period_return", record.Metrics.PeriodReturn.Float64).
		Str("macd", string(record.Technicals.MACDSignal)).
		Msg("Symbol analyzed")
	return outcome{ok: true}
}
