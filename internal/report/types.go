// Package report reduces a run's analysis records into the cross-sectional
// summary: rankings, sector statistics, market breadth and RSI screens.
package report

import (
	"github.com/guregu/null/v6"

	"github.com/aristath/marketsnap/internal/domain"
)

// RankingSize is the length of the gainer and loser lists.
const RankingSize = 10

// RSI screen thresholds, both exclusive.
const (
	OverboughtRSI = 70.0
	OversoldRSI   = 30.0
)

// StockSummary is the per-symbol row of the summary.
type StockSummary struct {
	Symbol       string            `json:"symbol"`
	Name         string            `json:"name"`
	Sector       string            `json:"sector"`
	PeriodReturn float64           `json:"periodReturn"`
	CurrentPrice null.Float        `json:"currentPrice"`
	RSI          null.Float        `json:"rsi"`
	MACDSignal   domain.MACDSignal `json:"macdSignal"`
	AboveMA50    null.Bool         `json:"aboveMa50"`
	AboveMA200   null.Bool         `json:"aboveMa200"`
	LastChange   null.Float        `json:"lastChange"`
	MarketCap    null.Int          `json:"marketCap"`
}

// Rankings holds the top gainers (best first) and top losers (worst first).
type Rankings struct {
	TopGainers []StockSummary `json:"topGainers"`
	TopLosers  []StockSummary `json:"topLosers"`
}

// Performer identifies a sector's best or worst member.
type Performer struct {
	Symbol       string  `json:"symbol"`
	PeriodReturn float64 `json:"periodReturn"`
}

// SectorStats aggregates the members of one sector.
type SectorStats struct {
	AvgReturn      float64   `json:"avgReturn"`
	Count          int       `json:"count"`
	BestPerformer  Performer `json:"bestPerformer"`
	WorstPerformer Performer `json:"worstPerformer"`
}

// MarketOverview is the breadth summary across every record.
type MarketOverview struct {
	AvgReturn       float64 `json:"avgReturn"`
	MedianReturn    float64 `json:"medianReturn"`
	BullishCount    int     `json:"bullishCount"`
	BearishCount    int     `json:"bearishCount"`
	AboveMA50Count  int     `json:"aboveMa50Count"`
	AboveMA200Count int     `json:"aboveMa200Count"`
	TotalStocks     int     `json:"totalStocks"`
	AnalysisDate    string  `json:"analysisDate"`
}

// Extreme is one row of the overbought or oversold screen.
type Extreme struct {
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	RSI          float64 `json:"rsi"`
	PeriodReturn float64 `json:"periodReturn"`
}

// SummaryReport is the full cross-sectional summary of one run.
type SummaryReport struct {
	Stocks         []StockSummary         `json:"stocks"`
	Rankings       Rankings               `json:"rankings"`
	SectorStats    map[string]SectorStats `json:"sectorStats"`
	MarketOverview MarketOverview         `json:"marketOverview"`
	Overbought     []Extreme              `json:"overbought"`
	Oversold       []Extreme              `json:"oversold"`
}
