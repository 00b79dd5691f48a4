// Package metrics computes the scalar summary of an analysis window.
package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/guregu/null/v6"

	"github.com/aristath/marketsnap/internal/domain"
	"github.com/aristath/marketsnap/pkg/formulas"
)

// Compute summarises the analysis window. The 52-week high/low is taken from
// full, over the sessions in the trailing 365 calendar days ending at asOf,
// regardless of where the window starts.
//
// Returns domain.ErrInsufficientData when the window is empty or full has
// fewer than domain.MinSessions sessions.
func Compute(window, full domain.TimeSeries, asOf time.Time) (domain.MetricsSet, error) {
	if window.Empty() {
		return domain.MetricsSet{}, fmt.Errorf("%w: empty analysis window", domain.ErrInsufficientData)
	}
	if full.Len() < domain.MinSessions {
		return domain.MetricsSet{}, fmt.Errorf("%w: %d sessions in history, need %d",
			domain.ErrInsufficientData, full.Len(), domain.MinSessions)
	}

	closes := window.Closes()
	first, last := closes[0], closes[len(closes)-1]

	periodReturn := null.Float{}
	if first != 0 {
		periodReturn = domain.Number((last - first) / first)
	}

	returns := formulas.CalculateReturns(closes)
	lastChange := 0.0
	if len(returns) > 0 {
		lastChange = returns[len(returns)-1]
	}

	high52w, low52w := yearRange(full, asOf)

	return domain.MetricsSet{
		PeriodReturn: periodReturn,
		MaxDrawdown:  domain.Number(formulas.MaxDrawdown(closes)),
		Volatility:   domain.Number(formulas.AnnualizedVolatility(returns)),
		AvgVolume:    averageVolume(window.Volumes()),
		CurrentPrice: domain.Number(last),
		High52w:      high52w,
		Low52w:       low52w,
		LastChange:   domain.Number(lastChange),
		StartPrice:   domain.Number(first),
	}, nil
}

// yearRange returns max(high) and min(low) over the sessions dated within the
// trailing 365 calendar days of asOf. Both are undefined when no session falls
// in that span.
func yearRange(full domain.TimeSeries, asOf time.Time) (null.Float, null.Float) {
	start := domain.Day(asOf).AddDate(0, 0, -domain.FiftyTwoWeekDays)
	end := domain.Day(asOf)

	high, low := math.Inf(-1), math.Inf(1)
	found := false
	for _, bar := range full.Since(start).Bars {
		if bar.Date.After(end) {
			break
		}
		found = true
		high = math.Max(high, bar.High)
		low = math.Min(low, bar.Low)
	}
	if !found {
		return null.Float{}, null.Float{}
	}
	return domain.Number(high), domain.Number(low)
}

// averageVolume is the arithmetic mean truncated to an integer.
func averageVolume(volumes []int64) int64 {
	if len(volumes) == 0 {
		return 0
	}
	values := make([]float64, len(volumes))
	for i, v := range volumes {
		values[i] = float64(v)
	}
	return int64(formulas.Mean(values))
}
