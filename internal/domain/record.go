package domain

import (
	"github.com/guregu/null/v6"

	"github.com/aristath/marketsnap/pkg/formulas"
)

// UnknownSector is used when company metadata carries no sector.
const UnknownSector = "Unknown"

// ValuePrecision is the number of decimals kept in persisted values.
const ValuePrecision = 4

// CompanyInfo is the static metadata the provider returns for a symbol.
type CompanyInfo struct {
	Name      string
	Sector    string
	MarketCap null.Int
}

// MACDSignal is the MACD regime at the last session.
type MACDSignal string

const (
	MACDBullish MACDSignal = "bullish"
	MACDBearish MACDSignal = "bearish"
	MACDNeutral MACDSignal = "neutral"
)

// MetricsSet is the scalar summary of the analysis window.
type MetricsSet struct {
	PeriodReturn null.Float `json:"periodReturn"`
	MaxDrawdown  null.Float `json:"maxDrawdown"`
	Volatility   null.Float `json:"volatility"`
	AvgVolume    int64      `json:"avgVolume"`
	CurrentPrice null.Float `json:"currentPrice"`
	High52w      null.Float `json:"high52w"`
	Low52w       null.Float `json:"low52w"`
	LastChange   null.Float `json:"lastChange"`
	StartPrice   null.Float `json:"startPrice"`
}

// TechnicalStance is derived from the last values of the indicator set.
type TechnicalStance struct {
	RSI        null.Float `json:"rsi"`
	MACDSignal MACDSignal `json:"macdSignal"`
	AboveMA50  null.Bool  `json:"aboveMa50"`
	AboveMA200 null.Bool  `json:"aboveMa200"`
}

// BarRecord is the persisted form of a PriceBar.
type BarRecord struct {
	Date   string     `json:"date"`
	Open   null.Float `json:"open"`
	High   null.Float `json:"high"`
	Low    null.Float `json:"low"`
	Close  null.Float `json:"close"`
	Volume int64      `json:"volume"`
}

// NewBarRecord converts a session into its persisted form.
func NewBarRecord(b PriceBar) BarRecord {
	return BarRecord{
		Date:   b.Date.Format(DateLayout),
		Open:   Number(b.Open),
		High:   Number(b.High),
		Low:    Number(b.Low),
		Close:  Number(b.Close),
		Volume: b.Volume,
	}
}

// MACDSeries holds the MACD line, signal line and histogram.
type MACDSeries struct {
	MACD      []null.Float `json:"macd"`
	Signal    []null.Float `json:"signal"`
	Histogram []null.Float `json:"histogram"`
}

// BollingerBands holds the upper, middle and lower bands.
type BollingerBands struct {
	Upper  []null.Float `json:"upper"`
	Middle []null.Float `json:"middle"`
	Lower  []null.Float `json:"lower"`
}

// IndicatorSet holds every indicator series, aligned to Dates.
type IndicatorSet struct {
	Dates     []string       `json:"dates"`
	MA5       []null.Float   `json:"ma5"`
	MA10      []null.Float   `json:"ma10"`
	MA20      []null.Float   `json:"ma20"`
	MA50      []null.Float   `json:"ma50"`
	MA200     []null.Float   `json:"ma200"`
	RSI       []null.Float   `json:"rsi"`
	MACD      MACDSeries     `json:"macd"`
	Bollinger BollingerBands `json:"bollinger"`
}

// Len returns the number of aligned positions.
func (s IndicatorSet) Len() int {
	return len(s.Dates)
}

// Slice returns positions [from, to) of every series.
func (s IndicatorSet) Slice(from, to int) IndicatorSet {
	return s.mapSeries(func(v []null.Float) []null.Float {
		return append([]null.Float(nil), v[from:to]...)
	}, append([]string(nil), s.Dates[from:to]...))
}

// Rounded returns a copy with every defined value rounded to ValuePrecision.
func (s IndicatorSet) Rounded() IndicatorSet {
	return s.mapSeries(func(v []null.Float) []null.Float {
		out := make([]null.Float, len(v))
		for i, x := range v {
			out[i] = RoundValue(x)
		}
		return out
	}, append([]string(nil), s.Dates...))
}

func (s IndicatorSet) mapSeries(fn func([]null.Float) []null.Float, dates []string) IndicatorSet {
	return IndicatorSet{
		Dates: dates,
		MA5:   fn(s.MA5),
		MA10:  fn(s.MA10),
		MA20:  fn(s.MA20),
		MA50:  fn(s.MA50),
		MA200: fn(s.MA200),
		RSI:   fn(s.RSI),
		MACD: MACDSeries{
			MACD:      fn(s.MACD.MACD),
			Signal:    fn(s.MACD.Signal),
			Histogram: fn(s.MACD.Histogram),
		},
		Bollinger: BollingerBands{
			Upper:  fn(s.Bollinger.Upper),
			Middle: fn(s.Bollinger.Middle),
			Lower:  fn(s.Bollinger.Lower),
		},
	}
}

// AnalysisRecord is the per-symbol result of one run. It is the unit of
// exchange between the pipeline and the aggregation engine.
type AnalysisRecord struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Sector       string          `json:"sector"`
	MarketCap    null.Int        `json:"marketCap"`
	AnalysisDate string          `json:"analysisDate"`
	Metrics      MetricsSet      `json:"metrics"`
	Technicals   TechnicalStance `json:"technicals"`
	PriceHistory []BarRecord     `json:"priceHistory"`
	Indicators   IndicatorSet    `json:"indicators"`
}

// RequiredRecordFields are the top-level keys every persisted record must carry.
var RequiredRecordFields = []string{
	"symbol", "name", "sector", "marketCap", "metrics", "technicals", "priceHistory", "indicators",
}

// Number converts a computed float into a persisted value: NaN and ±Inf
// become undefined, everything else is rounded to ValuePrecision.
func Number(f float64) null.Float {
	v := formulas.Finite(f)
	if !v.Valid {
		return v
	}
	return null.FloatFrom(formulas.Round(f, ValuePrecision))
}

// RoundValue applies Number to a possibly undefined value.
func RoundValue(v null.Float) null.Float {
	if !v.Valid {
		return v
	}
	return Number(v.Float64)
}
