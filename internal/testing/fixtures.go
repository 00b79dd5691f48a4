package testing

import (
	"time"

	"github.com/guregu/null/v6"

	"github.com/aristath/marketsnap/internal/domain"
)

// NewBarFixtures returns one session per calendar day ending at end, with the
// given closes. High and low sit one unit either side of the close.
func NewBarFixtures(end time.Time, closes []float64) []domain.PriceBar {
	start := domain.Day(end).AddDate(0, 0, -(len(closes) - 1))
	bars := make([]domain.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = domain.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

// LinearCloses returns n closes rising by one from from.
func LinearCloses(n int, from float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = from + float64(i)
	}
	return closes
}

// NewCompanyFixtures returns metadata for a handful of well-known symbols.
func NewCompanyFixtures() map[string]*domain.CompanyInfo {
	return map[string]*domain.CompanyInfo{
		"AAPL": {Name: "Apple Inc.", Sector: "Technology", MarketCap: null.IntFrom(3_500_000_000_000)},
		"MSFT": {Name: "Microsoft Corporation", Sector: "Technology", MarketCap: null.IntFrom(3_100_000_000_000)},
		"XOM":  {Name: "Exxon Mobil Corporation", Sector: "Energy", MarketCap: null.IntFrom(480_000_000_000)},
	}
}

// NewRecordFixture returns a minimal, valid analysis record.
func NewRecordFixture(symbol, sector string, periodReturn float64) *domain.AnalysisRecord {
	return &domain.AnalysisRecord{
		Symbol:       symbol,
		Name:         symbol,
		Sector:       sector,
		AnalysisDate: "2026-10-16",
		Metrics: domain.MetricsSet{
			PeriodReturn: null.FloatFrom(periodReturn),
			CurrentPrice: null.FloatFrom(100),
		},
		Technicals:   domain.TechnicalStance{MACDSignal: domain.MACDNeutral},
		PriceHistory: []domain.BarRecord{},
		Indicators:   domain.IndicatorSet{Dates: []string{}},
	}
}
