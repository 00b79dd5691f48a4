package report

import (
	"sort"

	"github.com/aristath/marketsnap/internal/domain"
	"github.com/aristath/marketsnap/pkg/formulas"
)

// Build reduces records, in load order, into a SummaryReport. It reads
// nothing but its input, so equal inputs give equal reports. Records without
// a defined period return cannot be ranked and are skipped.
//
// Returns domain.ErrNoRecords when nothing is left to aggregate.
func Build(records []*domain.AnalysisRecord) (*SummaryReport, error) {
	summaries := make([]StockSummary, 0, len(records))
	analysisDate := ""
	for _, rec := range records {
		if rec == nil || !rec.Metrics.PeriodReturn.Valid {
			continue
		}
		if len(summaries) == 0 {
			analysisDate = rec.AnalysisDate
		}
		summaries = append(summaries, summarize(rec))
	}
	if len(summaries) == 0 {
		return nil, domain.ErrNoRecords
	}

	overbought, oversold := extremes(summaries)
	return &SummaryReport{
		Stocks:         summaries,
		Rankings:       rank(summaries),
		SectorStats:    sectorStats(summaries),
		MarketOverview: overview(summaries, analysisDate),
		Overbought:     overbought,
		Oversold:       oversold,
	}, nil
}

func summarize(rec *domain.AnalysisRecord) StockSummary {
	return StockSummary{
		Symbol:       rec.Symbol,
		Name:         rec.Name,
		Sector:       rec.Sector,
		PeriodReturn: rec.Metrics.PeriodReturn.Float64,
		CurrentPrice: rec.Metrics.CurrentPrice,
		RSI:          rec.Technicals.RSI,
		MACDSignal:   rec.Technicals.MACDSignal,
		AboveMA50:    rec.Technicals.AboveMA50,
		AboveMA200:   rec.Technicals.AboveMA200,
		LastChange:   rec.Metrics.LastChange,
		MarketCap:    rec.MarketCap,
	}
}

// rank sorts by return descending, keeping load order among equal returns.
// Losers are the tail of that order, reversed so the worst comes first.
func rank(summaries []StockSummary) Rankings {
	byReturn := append([]StockSummary(nil), summaries...)
	sort.SliceStable(byReturn, func(i, j int) bool {
		return byReturn[i].PeriodReturn > byReturn[j].PeriodReturn
	})

	top := min(RankingSize, len(byReturn))
	gainers := append([]StockSummary(nil), byReturn[:top]...)

	tail := byReturn[len(byReturn)-top:]
	losers := make([]StockSummary, len(tail))
	for i := range tail {
		losers[i] = tail[len(tail)-1-i]
	}

	return Rankings{TopGainers: gainers, TopLosers: losers}
}

func sectorStats(summaries []StockSummary) map[string]SectorStats {
	members := make(map[string][]StockSummary)
	for _, s := range summaries {
		members[s.Sector] = append(members[s.Sector], s)
	}

	stats := make(map[string]SectorStats, len(members))
	for sector, group := range members {
		returns := make([]float64, len(group))
		best, worst := group[0], group[0]
		for i, s := range group {
			returns[i] = s.PeriodReturn
			if s.PeriodReturn > best.PeriodReturn {
				best = s
			}
			if s.PeriodReturn < worst.PeriodReturn {
				worst = s
			}
		}
		stats[sector] = SectorStats{
			AvgReturn:      formulas.Round(formulas.Mean(returns), domain.ValuePrecision),
			Count:          len(group),
			BestPerformer:  Performer{Symbol: best.Symbol, PeriodReturn: best.PeriodReturn},
			WorstPerformer: Performer{Symbol: worst.Symbol, PeriodReturn: worst.PeriodReturn},
		}
	}
	return stats
}

func overview(summaries []StockSummary, analysisDate string) MarketOverview {
	o := MarketOverview{
		TotalStocks:  len(summaries),
		AnalysisDate: analysisDate,
	}

	returns := make([]float64, len(summaries))
	for i, s := range summaries {
		returns[i] = s.PeriodReturn
		switch s.MACDSignal {
		case domain.MACDBullish:
			o.BullishCount++
		case domain.MACDBearish:
			o.BearishCount++
		}
		if s.AboveMA50.Valid && s.AboveMA50.Bool {
			o.AboveMA50Count++
		}
		if s.AboveMA200.Valid && s.AboveMA200.Bool {
			o.AboveMA200Count++
		}
	}

	o.AvgReturn = formulas.Round(formulas.Mean(returns), domain.ValuePrecision)
	o.MedianReturn = formulas.Round(formulas.Median(returns), domain.ValuePrecision)
	return o
}

// extremes screens on RSI. Undefined RSI never qualifies.
func extremes(summaries []StockSummary) (overbought, oversold []Extreme) {
	overbought, oversold = []Extreme{}, []Extreme{}
	for _, s := range summaries {
		if !s.RSI.Valid {
			continue
		}
		row := Extreme{Symbol: s.Symbol, Name: s.Name, RSI: s.RSI.Float64, PeriodReturn: s.PeriodReturn}
		switch {
		case s.RSI.Float64 > OverboughtRSI:
			overbought = append(overbought, row)
		case s.RSI.Float64 < OversoldRSI:
			oversold = append(oversold, row)
		}
	}

	sort.SliceStable(overbought, func(i, j int) bool { return overbought[i].RSI > overbought[j].RSI })
	sort.SliceStable(oversold, func(i, j int) bool { return oversold[i].RSI < oversold[j].RSI })
	return overbought, oversold
}
