package formulas

import (
	"math"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oscillating(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/3) + float64(i%7)
	}
	return closes
}

func linear(n int, start float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)
	}
	return closes
}

func TestSMASeries(t *testing.T) {
	out := SMASeries([]float64{1, 2, 3, 4, 5}, 3)

	require.Len(t, out, 5)
	assert.False(t, out[0].Valid)
	assert.False(t, out[1].Valid)
	assert.InDelta(t, 2.0, out[2].Float64, 1e-9)
	assert.InDelta(t, 3.0, out[3].Float64, 1e-9)
	assert.InDelta(t, 4.0, out[4].Float64, 1e-9)
}

func TestSMASeries_ShorterThanPeriod(t *testing.T) {
	out := SMASeries([]float64{1, 2, 3}, 5)

	require.Len(t, out, 3)
	for _, v := range out {
		assert.False(t, v.Valid)
	}
}

func TestSMASeries_ExactPeriod(t *testing.T) {
	closes := linear(200, 1)
	out := SMASeries(closes, 200)

	for i := 0; i < 199; i++ {
		assert.False(t, out[i].Valid, "position %d", i)
	}
	assert.True(t, out[199].Valid)
	assert.InDelta(t, 100.5, out[199].Float64, 1e-9)
}

func TestEMASeries(t *testing.T) {
	out := EMASeries([]float64{1, 2, 4}, 3) // alpha = 0.5

	assert.Equal(t, []float64{1, 1.5, 2.75}, out)
	assert.Empty(t, EMASeries(nil, 12))
}

func TestWilderRSISeries_Warmup(t *testing.T) {
	out := WilderRSISeries(oscillating(40), 14)

	for i := 0; i < 13; i++ {
		assert.False(t, out[i].Valid, "position %d should be undefined", i)
	}
	for i := 13; i < len(out); i++ {
		assert.True(t, out[i].Valid, "position %d should be defined", i)
	}
}

func TestWilderRSISeries_Bounds(t *testing.T) {
	for _, v := range WilderRSISeries(oscillating(300), 14) {
		if !v.Valid {
			continue
		}
		assert.GreaterOrEqual(t, v.Float64, 0.0)
		assert.LessOrEqual(t, v.Float64, 100.0)
	}
}

func TestWilderRSISeries_Saturation(t *testing.T) {
	t.Run("only gains saturates at 100", func(t *testing.T) {
		out := WilderRSISeries(linear(30, 100), 14)
		assert.Equal(t, null.FloatFrom(100), out[29])
	})

	t.Run("only losses gives 0", func(t *testing.T) {
		closes := linear(30, 100)
		for i := range closes {
			closes[i] = 200 - closes[i]
		}
		out := WilderRSISeries(closes, 14)
		assert.InDelta(t, 0.0, out[29].Float64, 1e-9)
		assert.True(t, out[29].Valid)
	})

	t.Run("flat series is undefined", func(t *testing.T) {
		closes := make([]float64, 30)
		for i := range closes {
			closes[i] = 50
		}
		for _, v := range WilderRSISeries(closes, 14) {
			assert.False(t, v.Valid)
		}
	})
}

func TestWilderRSISeries_AlternatingIsNeutral(t *testing.T) {
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 100
		if i%2 == 1 {
			closes[i] = 101
		}
	}

	out := WilderRSISeries(closes, 14)
	assert.InDelta(t, 50.0, out[199].Float64, 5.0)
}

func TestCalculateBollingerSeries(t *testing.T) {
	closes := oscillating(60)
	bands := CalculateBollingerSeries(closes, 20, 2)

	for i := 0; i < 19; i++ {
		assert.False(t, bands.Upper[i].Valid)
		assert.False(t, bands.Middle[i].Valid)
		assert.False(t, bands.Lower[i].Valid)
	}
	for i := 19; i < len(closes); i++ {
		require.True(t, bands.Middle[i].Valid)
		assert.GreaterOrEqual(t, bands.Upper[i].Float64, bands.Middle[i].Float64)
		assert.GreaterOrEqual(t, bands.Middle[i].Float64, bands.Lower[i].Float64)
	}

	sma := SMASeries(closes, 20)
	assert.InDelta(t, sma[59].Float64, bands.Middle[59].Float64, 1e-9)
}

func TestCalculateBollingerSeries_ConstantCollapses(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 42
	}
	bands := CalculateBollingerSeries(closes, 20, 2)

	assert.Equal(t, 42.0, bands.Upper[24].Float64)
	assert.Equal(t, 42.0, bands.Middle[24].Float64)
	assert.Equal(t, 42.0, bands.Lower[24].Float64)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))

	input := []float64{3, 1, 2}
	Median(input)
	assert.Equal(t, []float64{3, 1, 2}, input, "input must not be reordered")
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"monotonic rise", linear(30, 100), 0},
		{"single decline", []float64{100, 120, 90, 130}, -0.25},
		{"deepest of two", []float64{100, 80, 110, 55}, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MaxDrawdown(tt.prices), 1e-12)
		})
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Equal(t, 0.0, AnnualizedVolatility(nil))
	assert.Equal(t, 0.0, AnnualizedVolatility([]float64{0.05}))

	got := AnnualizedVolatility([]float64{0.01, -0.01})
	assert.InDelta(t, math.Sqrt(0.0002)*math.Sqrt(252), got, 1e-12)
}

func TestCalculateReturns(t *testing.T) {
	assert.Empty(t, CalculateReturns([]float64{100}))
	assert.InDeltaSlice(t, []float64{0.1, -0.5}, CalculateReturns([]float64{100, 110, 55}), 1e-12)
}

func TestRoundAndFinite(t *testing.T) {
	assert.Equal(t, 0.1235, Round(0.123456, 4))
	assert.False(t, Finite(math.NaN()).Valid)
	assert.False(t, Finite(math.Inf(1)).Valid)
	assert.Equal(t, null.FloatFrom(1.5), Finite(1.5))
}
