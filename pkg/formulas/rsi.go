package formulas

import "github.com/guregu/null/v6"

// WilderRSISeries calculates the Relative Strength Index at every position
//
// RSI Formula:
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = Average Gain / Average Loss
//
// Gains and losses are the session-over-session changes; the first position
// has no prior session and contributes a zero gain and a zero loss. Averages
// are exponentially weighted with alpha = 1/period, normalised by the sum of
// weights, and become defined once period observations exist.
//
// When the average loss is zero the ratio is unbounded and RSI saturates at
// 100; when both averages are zero RSI is undefined.
func WilderRSISeries(closes []float64, period int) []null.Float {
	out := make([]null.Float, len(closes))
	if period <= 0 {
		return out
	}

	decay := 1 - 1/float64(period)
	var gainNum, lossNum, weight float64

	for i := range closes {
		gain, loss := 0.0, 0.0
		if i > 0 {
			change := closes[i] - closes[i-1]
			if change > 0 {
				gain = change
			} else if change < 0 {
				loss = -change
			}
		}

		gainNum = gain + decay*gainNum
		lossNum = loss + decay*lossNum
		weight = 1 + decay*weight

		if i+1 < period {
			continue
		}

		avgGain := gainNum / weight
		avgLoss := lossNum / weight

		switch {
		case avgLoss == 0 && avgGain == 0:
			// flat series: ratio is 0/0
		case avgLoss == 0:
			out[i] = null.FloatFrom(100)
		default:
			rs := avgGain / avgLoss
			out[i] = Finite(100 - 100/(1+rs))
		}
	}

	return out
}
