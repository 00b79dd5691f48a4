// Package domain provides the core data model shared by the analysis
// pipeline, the aggregation engine and the persistence layer.
package domain

import (
	"sort"
	"time"
)

// DateLayout is the calendar-date format used in artifacts and on the command line.
const DateLayout = "2006-01-02"

// MinSessions is the minimum number of sessions a full history must carry.
const MinSessions = 5

// PriceBar represents one trading session
type PriceBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Day truncates t to midnight UTC of its calendar date in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// TimeSeries is a date-ordered sequence of sessions for one symbol.
// Dates are strictly increasing with no duplicates.
type TimeSeries struct {
	Symbol string
	Bars   []PriceBar
}

// NewTimeSeries builds a TimeSeries from bars in any order. Bars are moved to
// their calendar day, sorted, and de-duplicated with the last bar for a day
// winning.
func NewTimeSeries(symbol string, bars []PriceBar) TimeSeries {
	sorted := make([]PriceBar, len(bars))
	for i, b := range bars {
		b.Date = Day(b.Date)
		sorted[i] = b
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := sorted[:0]
	for _, b := range sorted {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}

	return TimeSeries{Symbol: symbol, Bars: out}
}

// Len returns the number of sessions.
func (s TimeSeries) Len() int {
	return len(s.Bars)
}

// Empty reports whether the series has no sessions.
func (s TimeSeries) Empty() bool {
	return len(s.Bars) == 0
}

// StartIndex returns the index of the first session on or after date,
// or Len() when there is none.
func (s TimeSeries) StartIndex(date time.Time) int {
	day := Day(date)
	return sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Date.Before(day)
	})
}

// Since returns the sub-series of sessions dated on or after date.
func (s TimeSeries) Since(date time.Time) TimeSeries {
	return TimeSeries{Symbol: s.Symbol, Bars: s.Bars[s.StartIndex(date):]}
}

// Until returns the sub-series of sessions dated on or before date.
func (s TimeSeries) Until(date time.Time) TimeSeries {
	day := Day(date)
	end := sort.Search(len(s.Bars), func(i int) bool {
		return s.Bars[i].Date.After(day)
	})
	return TimeSeries{Symbol: s.Symbol, Bars: s.Bars[:end]}
}

// Closes returns the close prices in order.
func (s TimeSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns the session highs in order.
func (s TimeSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the session lows in order.
func (s TimeSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the session volumes in order.
func (s TimeSeries) Volumes() []int64 {
	out := make([]int64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Dates returns the session dates formatted as YYYY-MM-DD.
func (s TimeSeries) Dates() []string {
	out := make([]string, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Date.Format(DateLayout)
	}
	return out
}
