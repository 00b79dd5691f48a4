package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/marketsnap/internal/analysis"
	"github.com/aristath/marketsnap/internal/domain"
	"github.com/aristath/marketsnap/internal/reliability"
	"github.com/aristath/marketsnap/internal/report"
	"github.com/aristath/marketsnap/internal/storage"
	"github.com/rs/zerolog"
)

// Pipeline is the analyze / summarize / publish surface the snapshot job drives
type Pipeline interface {
	Analyze(ctx context.Context, symbols []string, w domain.Window) (*analysis.BatchReport, error)
	Summarize() (*report.SummaryReport, []storage.ValidationError, error)
	Publish(ctx context.Context) (*reliability.PublishResult, error)
}

// SymbolSource returns the symbols to analyze; it is called on every run so
// edits to the symbols file are picked up without a restart
type SymbolSource func() ([]string, error)

// SnapshotJob analyzes every configured symbol with a year-to-date window
// ending today, rebuilds the summary and optionally publishes it
type SnapshotJob struct {
	pipeline Pipeline
	symbols  SymbolSource
	publish  bool
	timeout  time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewSnapshotJob creates a new snapshot job
func NewSnapshotJob(pipeline Pipeline, symbols SymbolSource, publish bool, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		pipeline: pipeline,
		symbols:  symbols,
		publish:  publish,
		timeout:  2 * time.Hour,
		now:      time.Now,
		log:      log.With().Str("job", "snapshot").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *SnapshotJob) Name() string {
	return "snapshot"
}

// Run executes one full snapshot
func (j *SnapshotJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	return j.run(ctx)
}

func (j *SnapshotJob) run(ctx context.Context) error {
	startTime := j.now()

	symbols, err := j.symbols()
	if err != nil {
		return fmt.Errorf("failed to resolve symbols: %w", err)
	}

	window := domain.DefaultWindow(startTime)
	batch, err := j.pipeline.Analyze(ctx, symbols, window)
	if err != nil {
		return fmt.Errorf("analysis run failed: %w", err)
	}
	if len(batch.Succeeded) == 0 {
		return fmt.Errorf("analysis run %s produced no records (%d failed)", batch.RunID, len(batch.Failed))
	}

	summary, invalid, err := j.pipeline.Summarize()
	if err != nil {
		return fmt.Errorf("summary failed: %w", err)
	}

	event := j.log.Info().
		Str("run_id", batch.RunID.String()).
		Str("as_of", batch.AsOf).
		Int("succeeded", len(batch.Succeeded)).
		Int("failed", len(batch.Failed)).
		Int("summarized", len(summary.Stocks)).
		Int("invalid", len(invalid))

	if j.publish {
		result, err := j.pipeline.Publish(ctx)
		if err != nil {
			return err
		}
		event = event.Str("snapshot", result.SnapshotKey)
	}

	event.Dur("duration_ms", j.now().Sub(startTime)).Msg("Snapshot completed")
	return nil
}
