// Package formulas holds the numeric building blocks shared by the indicator
// and metrics engines. Series-valued functions return one value per input
// position, with null.Float marking positions where the value is undefined.
package formulas

import (
	"math"
	"sort"

	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily data.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (n-1 denominator).
// Returns 0 when fewer than two values are given.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Median returns the middle value of data, averaging the two middle values
// for even-length input. The input slice is not modified.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}

// Finite wraps f as a defined value unless it is NaN or infinite.
func Finite(f float64) null.Float {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Float{}
	}
	return null.FloatFrom(f)
}

// CalculateReturns converts prices to percentage returns
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}

	return returns
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: sample std dev of daily returns × sqrt(252).
// A single return has no spread, so fewer than two returns yield 0.
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// MaxDrawdown returns the most negative (price - running peak) / running peak
// over the series. The result is 0 for a series that never declines and is
// never positive.
func MaxDrawdown(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}

	maxDrawdown := 0.0
	peak := prices[0]
	for _, price := range prices {
		if price > peak {
			peak = price
		}
		if peak > 0 {
			drawdown := (price - peak) / peak
			if drawdown < maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}
