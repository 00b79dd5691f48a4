package report

import (
	"fmt"
	"io"
)

// consoleRows is how many gainers and losers the console digest lists.
const consoleRows = 5

// WriteDigest prints a human-readable digest of r to w.
func WriteDigest(w io.Writer, r *SummaryReport) error {
	o := r.MarketOverview
	p := &printer{w: w}

	p.printf("=== Market Overview (%s) ===\n", o.AnalysisDate)
	p.printf("Total stocks: %d\n", o.TotalStocks)
	p.printf("Avg return: %+.2f%%\n", o.AvgReturn*100)
	p.printf("Median return: %+.2f%%\n", o.MedianReturn*100)
	p.printf("Bullish: %d | Bearish: %d\n", o.BullishCount, o.BearishCount)
	p.printf("Above MA50: %d | Above MA200: %d\n", o.AboveMA50Count, o.AboveMA200Count)

	p.printf("\n=== Top %d Gainers ===\n", consoleRows)
	p.rows(r.Rankings.TopGainers)
	p.printf("\n=== Top %d Losers ===\n", consoleRows)
	p.rows(r.Rankings.TopLosers)

	p.printf("\nOverbought (RSI>%.0f): %d stocks\n", OverboughtRSI, len(r.Overbought))
	for _, e := range r.Overbought {
		p.printf("  %-6s RSI=%.1f\n", e.Symbol, e.RSI)
	}
	p.printf("Oversold (RSI<%.0f): %d stocks\n", OversoldRSI, len(r.Oversold))
	for _, e := range r.Oversold {
		p.printf("  %-6s RSI=%.1f\n", e.Symbol, e.RSI)
	}
	return p.err
}

// printer keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) rows(list []StockSummary) {
	for i, s := range list {
		if i == consoleRows {
			return
		}
		p.printf("  %-6s %+.2f%%  ($%.2f)\n", s.Symbol, s.PeriodReturn*100, s.CurrentPrice.Float64)
	}
}
