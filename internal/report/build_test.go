package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/marketsnap/internal/domain"
)

type recordOpt func(*domain.AnalysisRecord)

func withRSI(v float64) recordOpt {
	return func(r *domain.AnalysisRecord) { r.Technicals.RSI = null.FloatFrom(v) }
}

func withMACD(s domain.MACDSignal) recordOpt {
	return func(r *domain.AnalysisRecord) { r.Technicals.MACDSignal = s }
}

func withAbove(ma50, ma200 null.Bool) recordOpt {
	return func(r *domain.AnalysisRecord) {
		r.Technicals.AboveMA50 = ma50
		r.Technicals.AboveMA200 = ma200
	}
}

func record(symbol, sector string, ret float64, opts ...recordOpt) *domain.AnalysisRecord {
	r := &domain.AnalysisRecord{
		Symbol:       symbol,
		Name:         symbol + " Inc",
		Sector:       sector,
		AnalysisDate: "2026-10-16",
		Metrics: domain.MetricsSet{
			PeriodReturn: null.FloatFrom(ret),
			CurrentPrice: null.FloatFrom(100),
		},
		Technicals: domain.TechnicalStance{MACDSignal: domain.MACDNeutral},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func symbols(list []StockSummary) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Symbol
	}
	return out
}

func TestBuild_Empty(t *testing.T) {
	_, err := Build(nil)
	assert.True(t, errors.Is(err, domain.ErrNoRecords))

	undefined := record("X", "Tech", 0)
	undefined.Metrics.PeriodReturn = null.Float{}
	_, err = Build([]*domain.AnalysisRecord{undefined})
	assert.True(t, errors.Is(err, domain.ErrNoRecords))
}

func TestBuild_RankingsAreStable(t *testing.T) {
	records := []*domain.AnalysisRecord{
		record("A", "Tech", 0.10),
		record("B", "Tech", 0.30),
		record("C", "Tech", 0.10),
		record("D", "Tech", -0.20),
	}

	r, err := Build(records)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A", "C", "D"}, symbols(r.Rankings.TopGainers))
	assert.Equal(t, []string{"D", "C", "A", "B"}, symbols(r.Rankings.TopLosers))
	assert.Equal(t, []string{"A", "B", "C", "D"}, symbols(r.Stocks), "stocks keep load order")
}

func TestBuild_RankingsCapAtTen(t *testing.T) {
	var records []*domain.AnalysisRecord
	for i := 0; i < 25; i++ {
		records = append(records, record(fmt.Sprintf("S%02d", i), "Tech", float64(i)/100))
	}

	r, err := Build(records)
	require.NoError(t, err)

	require.Len(t, r.Rankings.TopGainers, RankingSize)
	require.Len(t, r.Rankings.TopLosers, RankingSize)
	assert.Equal(t, "S24", r.Rankings.TopGainers[0].Symbol)
	assert.Equal(t, "S15", r.Rankings.TopGainers[9].Symbol)
	assert.Equal(t, "S00", r.Rankings.TopLosers[0].Symbol)
	assert.Equal(t, "S09", r.Rankings.TopLosers[9].Symbol)

	for i := 1; i < RankingSize; i++ {
		assert.GreaterOrEqual(t, r.Rankings.TopGainers[i-1].PeriodReturn, r.Rankings.TopGainers[i].PeriodReturn)
		assert.LessOrEqual(t, r.Rankings.TopLosers[i-1].PeriodReturn, r.Rankings.TopLosers[i].PeriodReturn)
	}
}

func TestBuild_SectorStats(t *testing.T) {
	records := []*domain.AnalysisRecord{
		record("A", "Tech", 0.10),
		record("B", "Tech", 0.30),
		record("C", "Tech", 0.30),
		record("D", "Energy", -0.10),
		record("E", "tech", 0.05),
	}

	r, err := Build(records)
	require.NoError(t, err)

	require.Len(t, r.SectorStats, 3, "sector names are case-sensitive")
	tech := r.SectorStats["Tech"]
	assert.Equal(t, 3, tech.Count)
	assert.Equal(t, 0.2333, tech.AvgReturn)
	assert.Equal(t, Performer{Symbol: "B", PeriodReturn: 0.30}, tech.BestPerformer, "first encountered wins a tie")
	assert.Equal(t, Performer{Symbol: "A", PeriodReturn: 0.10}, tech.WorstPerformer)

	energy := r.SectorStats["Energy"]
	assert.Equal(t, 1, energy.Count)
	assert.Equal(t, "D", energy.BestPerformer.Symbol)
	assert.Equal(t, "D", energy.WorstPerformer.Symbol)
}

func TestBuild_MarketOverview(t *testing.T) {
	records := []*domain.AnalysisRecord{
		record("A", "Tech", 0.10, withMACD(domain.MACDBullish), withAbove(null.BoolFrom(true), null.BoolFrom(true))),
		record("B", "Tech", 0.20, withMACD(domain.MACDBullish), withAbove(null.BoolFrom(true), null.Bool{})),
		record("C", "Tech", -0.05, withMACD(domain.MACDBearish), withAbove(null.BoolFrom(false), null.BoolFrom(false))),
		record("D", "Tech", 0.40),
	}
	records[0].AnalysisDate = "2026-10-15"

	r, err := Build(records)
	require.NoError(t, err)

	o := r.MarketOverview
	assert.Equal(t, 0.1625, o.AvgReturn)
	assert.Equal(t, 0.15, o.MedianReturn)
	assert.Equal(t, 2, o.BullishCount)
	assert.Equal(t, 1, o.BearishCount)
	assert.Equal(t, 2, o.AboveMA50Count)
	assert.Equal(t, 1, o.AboveMA200Count, "undefined does not count")
	assert.Equal(t, 4, o.TotalStocks)
	assert.Equal(t, "2026-10-15", o.AnalysisDate, "taken from the first record")
}

func TestBuild_Extremes(t *testing.T) {
	records := []*domain.AnalysisRecord{
		record("A", "Tech", 0.1, withRSI(75)),
		record("B", "Tech", 0.1, withRSI(85)),
		record("C", "Tech", 0.1, withRSI(70)),
		record("D", "Tech", 0.1, withRSI(25)),
		record("E", "Tech", 0.1, withRSI(10)),
		record("F", "Tech", 0.1, withRSI(30)),
		record("G", "Tech", 0.1),
	}

	r, err := Build(records)
	require.NoError(t, err)

	require.Len(t, r.Overbought, 2)
	assert.Equal(t, "B", r.Overbought[0].Symbol)
	assert.Equal(t, "A", r.Overbought[1].Symbol)

	require.Len(t, r.Oversold, 2)
	assert.Equal(t, "E", r.Oversold[0].Symbol)
	assert.Equal(t, "D", r.Oversold[1].Symbol)
	assert.Equal(t, "D Inc", r.Oversold[1].Name)
}

func TestBuild_IdenticalBytes(t *testing.T) {
	records := []*domain.AnalysisRecord{
		record("A", "Tech", 0.10, withRSI(80)),
		record("B", "Energy", 0.30),
		record("C", "Health", -0.10, withRSI(20)),
		record("D", "Utilities", 0.05),
	}

	encode := func() []byte {
		r, err := Build(records)
		require.NoError(t, err)
		b, err := json.MarshalIndent(r, "", "  ")
		require.NoError(t, err)
		return b
	}

	first := encode()
	for i := 0; i < 5; i++ {
		assert.True(t, bytes.Equal(first, encode()))
	}
	assert.Contains(t, string(first), `"Energy": {`)
	assert.Contains(t, string(first), `"marketCap": null`)
}

func TestWriteDigest(t *testing.T) {
	records := []*domain.AnalysisRecord{
		record("A", "Tech", 0.10, withRSI(80)),
		record("B", "Tech", -0.05, withRSI(20)),
	}
	r, err := Build(records)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDigest(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "Total stocks: 2")
	assert.Contains(t, out, "A      +10.00%  ($100.00)")
	assert.Contains(t, out, "Overbought (RSI>70): 1 stocks")
	assert.Contains(t, out, "B      RSI=20.0")
}
