/**
 * Package services provides SnapshotService, the single entry point for the
 * steps that produce and ship a market snapshot.
 *
 * The same service backs the analyze / summarize / publish commands and the
 * scheduled snapshot job:
 *   batch, _ := svc.Analyze(ctx, symbols, domain.DefaultWindow(time.Now()))
 *   summary, invalid, _ := svc.Summarize()
 *   result, _ := svc.Publish(ctx)
 */
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aristath/marketsnap/internal/analysis"
	"github.com/aristath/marketsnap/internal/domain"
	"github.com/aristath/marketsnap/internal/reliability"
	"github.com/aristath/marketsnap/internal/report"
	"github.com/aristath/marketsnap/internal/storage"
	"github.com/rs/zerolog"
)

// ErrPublishDisabled is returned by Publish when no bucket is configured
var ErrPublishDisabled = errors.New("publishing is not configured")

// Publisher ships artifacts off-host
type Publisher interface {
	Publish(ctx context.Context) (*reliability.PublishResult, error)
	RotateSnapshots(ctx context.Context, retentionDays int) (int, error)
}

/**
 * SnapshotService coordinates the provider, the artifact store and the
 * optional publisher.
 */
type SnapshotService struct {
	provider      analysis.Provider
	store         *storage.Store
	workers       int
	publisher     Publisher // Optional
	retentionDays int
	log           zerolog.Logger
}

// NewSnapshotService creates a new SnapshotService
func NewSnapshotService(provider analysis.Provider, store *storage.Store, workers int, log zerolog.Logger) *SnapshotService {
	return &SnapshotService{
		provider: provider,
		store:    store,
		workers:  workers,
		log:      log.With().Str("service", "snapshot").Logger(),
	}
}

// SetPublisher enables Publish; snapshots older than retentionDays are
// rotated out after each publish
func (s *SnapshotService) SetPublisher(p Publisher, retentionDays int) {
	s.publisher = p
	s.retentionDays = retentionDays
}

// CanPublish reports whether a publisher is set
func (s *SnapshotService) CanPublish() bool {
	return s.publisher != nil
}

// Analyze runs the batch over symbols and records it as the latest run.
// The batch report is returned even when ctx was cancelled mid-run.
func (s *SnapshotService) Analyze(ctx context.Context, symbols []string, w domain.Window) (*analysis.BatchReport, error) {
	if len(symbols) == 0 {
		return nil, domain.ErrNoSymbols
	}

	analyzer := analysis.NewAnalyzer(s.provider, s.log)
	runner := analysis.NewRunner(analyzer, s.store, w, s.workers, s.log)

	batch, runErr := runner.Run(ctx, symbols)
	if batch == nil {
		return nil, runErr
	}
	if err := s.store.SaveBatchReport(batch); err != nil {
		return batch, fmt.Errorf("failed to save batch report: %w", err)
	}
	return batch, runErr
}

// Summarize aggregates every stored record into summary.json. Artifacts
// that fail validation are skipped and returned.
func (s *SnapshotService) Summarize() (*report.SummaryReport, []storage.ValidationError, error) {
	records, invalid, err := s.store.LoadRecords()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load records: %w", err)
	}

	summary, err := report.Build(records)
	if err != nil {
		return nil, invalid, err
	}
	if err := s.store.SaveSummary(summary); err != nil {
		return nil, invalid, fmt.Errorf("failed to save summary: %w", err)
	}

	s.log.Info().
		Int("stocks", len(summary.Stocks)).
		Int("invalid", len(invalid)).
		Str("analysis_date", summary.MarketOverview.AnalysisDate).
		Msg("Summary written")

	return summary, invalid, nil
}

// Publish uploads the artifacts and rotates old snapshots. Rotation
// failures are logged only.
func (s *SnapshotService) Publish(ctx context.Context) (*reliability.PublishResult, error) {
	if s.publisher == nil {
		return nil, ErrPublishDisabled
	}

	result, err := s.publisher.Publish(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to publish artifacts: %w", err)
	}

	if _, err := s.publisher.RotateSnapshots(ctx, s.retentionDays); err != nil {
		s.log.Warn().Err(err).Msg("Snapshot rotation failed")
	}
	return result, nil
}
