package formulas

import (
	"github.com/guregu/null/v6"
	"github.com/markcheno/go-talib"
)

// SMASeries calculates the trailing simple moving average at every position.
// The first period-1 positions are undefined, as is every position when the
// series is shorter than period.
func SMASeries(closes []float64, period int) []null.Float {
	out := make([]null.Float, len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}

	sma := talib.Sma(closes, period)
	for i := period - 1; i < len(closes); i++ {
		out[i] = Finite(sma[i])
	}

	return out
}

// EMASeries calculates the Exponential Moving Average at every position
//
// EMA Formula:
//
//	EMA_0     = Price_0
//	EMA_today = (Price_today × multiplier) + (EMA_yesterday × (1 - multiplier))
//	where multiplier = 2 / (span + 1)
//
// The average is seeded with the first observation, so every position is
// defined; early values simply carry less history.
func EMASeries(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || span <= 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}

	return out
}
