package formulas

import (
	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/stat"
)

// BollingerSeries holds the three bands, one value per input position.
type BollingerSeries struct {
	Upper  []null.Float
	Middle []null.Float
	Lower  []null.Float
}

// CalculateBollingerSeries calculates Bollinger Bands at every position
//
// Bollinger Bands Formula:
//
//	Middle Band = length-session SMA
//	Upper Band  = Middle + (k × sample std deviation)
//	Lower Band  = Middle - (k × sample std deviation)
//
// The first length-1 positions are undefined.
func CalculateBollingerSeries(closes []float64, length int, k float64) BollingerSeries {
	bands := BollingerSeries{
		Upper:  make([]null.Float, len(closes)),
		Middle: make([]null.Float, len(closes)),
		Lower:  make([]null.Float, len(closes)),
	}
	if length < 2 || len(closes) < length {
		return bands
	}

	for i := length - 1; i < len(closes); i++ {
		mean, std := stat.MeanStdDev(closes[i-length+1:i+1], nil)
		middle := Finite(mean)
		if !middle.Valid {
			continue
		}
		bands.Middle[i] = middle
		bands.Upper[i] = Finite(mean + k*std)
		bands.Lower[i] = Finite(mean - k*std)
	}

	return bands
}
