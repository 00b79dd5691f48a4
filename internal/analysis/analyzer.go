package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/marketsnap/internal/domain"
	"github.com/aristath/marketsnap/internal/indicators"
	"github.com/aristath/marketsnap/internal/metrics"
)

// Analyzer produces one AnalysisRecord per symbol.
type Analyzer struct {
	provider Provider
	log      zerolog.Logger
}

// NewAnalyzer creates an analyzer reading from provider.
func NewAnalyzer(provider Provider, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		provider: provider,
		log:      log.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze fetches history from w.LookbackStart through w.AsOf, computes the
// indicator set over the full history and the metrics over the sessions on or
// after w.WindowStart.
//
// Errors wrap domain.ErrInsufficientHistory (provider failure, empty response
// or fewer than domain.MinSessions sessions) or domain.ErrNoWindowData.
// Metadata failures never fail the record.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, w domain.Window) (*domain.AnalysisRecord, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	bars, err := a.provider.History(ctx, symbol, w.LookbackStart, w.AsOf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInsufficientHistory, symbol, err)
	}

	full := domain.NewTimeSeries(symbol, bars)
	full = full.Until(w.AsOf)
	if full.Len() < domain.MinSessions {
		return nil, fmt.Errorf("%w: %s returned %d sessions", domain.ErrInsufficientHistory, symbol, full.Len())
	}

	start := full.StartIndex(w.WindowStart)
	if start == full.Len() {
		return nil, fmt.Errorf("%w: %s has no sessions since %s",
			domain.ErrNoWindowData, symbol, w.WindowStart.Format(domain.DateLayout))
	}
	window := domain.TimeSeries{Symbol: symbol, Bars: full.Bars[start:]}

	set := indicators.Compute(full)
	stance := indicators.DeriveStance(set, full.Bars[full.Len()-1].Close)

	m, err := metrics.Compute(window, full, w.AsOf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}

	history := make([]domain.BarRecord, window.Len())
	for i, bar := range window.Bars {
		history[i] = domain.NewBarRecord(bar)
	}

	record := &domain.AnalysisRecord{
		Symbol:       symbol,
		Name:         symbol,
		Sector:       domain.UnknownSector,
		AnalysisDate: w.AnalysisDate(),
		Metrics:      m,
		Technicals:   stance,
		PriceHistory: history,
		Indicators:   set.Slice(start, set.Len()).Rounded(),
	}
	a.applyCompany(ctx, record)

	return record, nil
}

func (a *Analyzer) applyCompany(ctx context.Context, record *domain.AnalysisRecord) {
	info, err := a.provider.Company(ctx, record.Symbol)
	if err != nil {
		a.log.Warn().Err(err).Str("symbol", record.Symbol).Msg("Company metadata unavailable")
		return
	}
	if info == nil {
		return
	}
	if name := strings.TrimSpace(info.Name); name != "" {
		record.Name = name
	}
	if sector := strings.TrimSpace(info.Sector); sector != "" {
		record.Sector = sector
	}
	record.MarketCap = info.MarketCap
}
