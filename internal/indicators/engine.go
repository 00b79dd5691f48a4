// Package indicators computes the technical indicator set for a price series.
//
// Every series is computed over the full history handed in and is aligned to
// it position by position. Callers slice the result down to the analysis
// window afterwards, so long rolling windows see the sessions that precede it.
package indicators

import (
	"github.com/guregu/null/v6"

	"github.com/aristath/marketsnap/internal/domain"
	"github.com/aristath/marketsnap/pkg/formulas"
)

const (
	RSIPeriod        = 14
	MACDFastSpan     = 12
	MACDSlowSpan     = 26
	MACDSignalSpan   = 9
	BollingerPeriod  = 20
	BollingerStdDevs = 2.0
)

// Compute derives MA5/10/20/50/200, RSI, MACD and Bollinger Bands from the
// closes of series.
func Compute(series domain.TimeSeries) domain.IndicatorSet {
	closes := series.Closes()
	bands := formulas.CalculateBollingerSeries(closes, BollingerPeriod, BollingerStdDevs)

	return domain.IndicatorSet{
		Dates:     series.Dates(),
		MA5:       formulas.SMASeries(closes, 5),
		MA10:      formulas.SMASeries(closes, 10),
		MA20:      formulas.SMASeries(closes, 20),
		MA50:      formulas.SMASeries(closes, 50),
		MA200:     formulas.SMASeries(closes, 200),
		RSI:       formulas.WilderRSISeries(closes, RSIPeriod),
		MACD:      computeMACD(closes),
		Bollinger: domain.BollingerBands{Upper: bands.Upper, Middle: bands.Middle, Lower: bands.Lower},
	}
}

func computeMACD(closes []float64) domain.MACDSeries {
	fast := formulas.EMASeries(closes, MACDFastSpan)
	slow := formulas.EMASeries(closes, MACDSlowSpan)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
	}
	signal := formulas.EMASeries(line, MACDSignalSpan)

	out := domain.MACDSeries{
		MACD:      make([]null.Float, len(closes)),
		Signal:    make([]null.Float, len(closes)),
		Histogram: make([]null.Float, len(closes)),
	}
	for i := range closes {
		out.MACD[i] = formulas.Finite(line[i])
		out.Signal[i] = formulas.Finite(signal[i])
		if out.MACD[i].Valid && out.Signal[i].Valid {
			out.Histogram[i] = formulas.Finite(line[i] - signal[i])
		}
	}
	return out
}

// DeriveStance reads the technical stance off the last position of set.
// lastClose is the close at that position.
func DeriveStance(set domain.IndicatorSet, lastClose float64) domain.TechnicalStance {
	stance := domain.TechnicalStance{MACDSignal: domain.MACDNeutral}
	n := set.Len()
	if n == 0 {
		return stance
	}

	stance.RSI = domain.RoundValue(set.RSI[n-1])
	stance.MACDSignal = macdRegime(set.MACD.MACD[n-1], set.MACD.Signal[n-1])
	stance.AboveMA50 = above(lastClose, set.MA50[n-1])
	stance.AboveMA200 = above(lastClose, set.MA200[n-1])

	return stance
}

func macdRegime(line, signal null.Float) domain.MACDSignal {
	if !line.Valid || !signal.Valid {
		return domain.MACDNeutral
	}
	switch {
	case line.Float64 > signal.Float64:
		return domain.MACDBullish
	case line.Float64 < signal.Float64:
		return domain.MACDBearish
	default:
		return domain.MACDNeutral
	}
}

// above is undefined, not false, when the average itself is undefined.
func above(price float64, average null.Float) null.Bool {
	if !average.Valid {
		return null.Bool{}
	}
	return null.BoolFrom(price > average.Float64)
}
