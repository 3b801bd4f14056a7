package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanAndStdDev(t *testing.T) {
	data := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, Mean(data), 1e-9)
	// Sample standard deviation of the classic example set
	assert.InDelta(t, 2.138, StdDev(data), 0.001)

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, StdDev(nil))
}

func TestCalculateReturns(t *testing.T) {
	returns := CalculateReturns([]float64{100, 110, 99})

	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)

	assert.Empty(t, CalculateReturns([]float64{100}))
}

func TestAnnualizedVolatility(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.015, -0.005, 0.03}
	expected := StdDev(returns) * math.Sqrt(252)

	assert.InDelta(t, expected, AnnualizedVolatility(returns), 1e-9)
	assert.Equal(t, 0.0, AnnualizedVolatility(nil))
}

func TestMaxDrawdown(t *testing.T) {
	// Peak at 120, trough at 90 afterwards: drawdown = 25%
	prices := []float64{100, 120, 110, 90, 115}
	assert.InDelta(t, 0.25, MaxDrawdown(prices), 1e-9)

	assert.Equal(t, 0.0, MaxDrawdown([]float64{100}))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{100, 110, 120}))
}

func TestCalculateSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}

	sma := CalculateSMA(closes, 5)
	require.NotNil(t, sma)
	assert.InDelta(t, 3.0, *sma, 1e-9)

	assert.Nil(t, CalculateSMA(closes, 6), "insufficient data returns nil")
}

func TestCalculateEMA_FallsBackToMean(t *testing.T) {
	closes := []float64{10, 20}

	ema := CalculateEMA(closes, 5)
	require.NotNil(t, ema)
	assert.InDelta(t, 15.0, *ema, 1e-9)

	assert.Nil(t, CalculateEMA(nil, 5))
}

func TestCalculateRSI_Bounds(t *testing.T) {
	// Monotonically increasing closes: RSI should be pinned at 100
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(100 + i)
	}

	rsi := CalculateRSI(closes, 14)
	require.NotNil(t, rsi)
	assert.InDelta(t, 100.0, *rsi, 1e-6)

	assert.Nil(t, CalculateRSI(closes[:10], 14))
}
