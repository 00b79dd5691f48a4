// Package analysis turns provider data into per-symbol analysis records and
// drives batches of symbols through that pipeline.
package analysis

import (
	"context"
	"time"

	"github.com/aristath/marketsnap/internal/domain"
)

// Provider is the market data boundary consumed by the pipeline.
type Provider interface {
	// History returns daily sessions dated in [start, end], both inclusive.
	// An unknown or delisted symbol may yield an empty slice or an error.
	History(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error)

	// Company returns static metadata for symbol.
	Company(ctx context.Context, symbol string) (*domain.CompanyInfo, error)
}

// RecordSink persists successful records.
type RecordSink interface {
	SaveRecord(record *domain.AnalysisRecord) error
}
