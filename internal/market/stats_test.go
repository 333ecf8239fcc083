package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
)

func TestLogReturns(t *testing.T) {
	returns, err := LogReturns([]float64{100, 110, 99})
	require.NoError(t, err)
	require.Len(t, returns, 2)
	assert.InDelta(t, math.Log(1.1), returns[0], 1e-12)
	assert.InDelta(t, math.Log(0.9), returns[1], 1e-12)
}

func TestLogReturnsRejectsBadSeries(t *testing.T) {
	_, err := LogReturns([]float64{100})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = LogReturns([]float64{100, 0, 99})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = LogReturns([]float64{100, -5})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestRealizedVolatilityConstantReturns(t *testing.T) {
	// identical returns have zero sample deviation regardless of demeaning
	returns := []float64{0.01, 0.01, 0.01, 0.01}

	vol, err := RealizedVolatility(returns, TradingDaysPerYear, true)
	require.NoError(t, err)
	assert.InDelta(t, 0, vol, 1e-12)

	// without demeaning the raw second moment survives
	vol, err = RealizedVolatility(returns, TradingDaysPerYear, false)
	require.NoError(t, err)
	want := math.Sqrt(4*0.01*0.01/3) * math.Sqrt(TradingDaysPerYear)
	assert.InDelta(t, want, vol, 1e-12)
}

func TestRealizedVolatilityKnownValue(t *testing.T) {
	returns := []float64{0.02, -0.01, 0.03, -0.02}

	mean := 0.005
	var sumSq float64
	for _, r := range returns {
		sumSq += (r - mean) * (r - mean)
	}
	want := math.Sqrt(sumSq/3) * math.Sqrt(252)

	vol, err := RealizedVolatility(returns, 252, true)
	require.NoError(t, err)
	assert.InDelta(t, want, vol, 1e-12)
}

func TestRealizedVolatilityEdgeCases(t *testing.T) {
	_, err := RealizedVolatility(nil, 252, true)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	vol, err := RealizedVolatility([]float64{0.01}, 252, true)
	require.NoError(t, err)
	assert.Equal(t, 0.0, vol)
}

func TestRollingRealizedVolatilityAlignment(t *testing.T) {
	prices := []float64{100, 101, 102, 101, 103, 104}
	window := 3

	out, err := RollingRealizedVolatility(prices, window, 252, true)
	require.NoError(t, err)
	require.Len(t, out, len(prices))

	// the first window entries have insufficient history
	for i := 0; i < window; i++ {
		assert.True(t, math.IsNaN(out[i]), "index %d should be NaN", i)
	}
	for i := window; i < len(out); i++ {
		assert.False(t, math.IsNaN(out[i]), "index %d should be filled", i)
		assert.GreaterOrEqual(t, out[i], 0.0)
	}

	// spot-check the last entry against a direct computation
	returns, err := LogReturns(prices)
	require.NoError(t, err)
	want, err := RealizedVolatility(returns[len(returns)-window:], 252, true)
	require.NoError(t, err)
	assert.InDelta(t, want, out[len(out)-1], 1e-12)
}

func TestRollingRealizedVolatilityRejectsSmallWindow(t *testing.T) {
	_, err := RollingRealizedVolatility([]float64{100, 101, 102}, 1, 252, true)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestHistoricalVolatility(t *testing.T) {
	prices := []float64{100, 102, 101, 103, 105, 104}

	returns, err := LogReturns(prices)
	require.NoError(t, err)
	want, err := RealizedVolatility(returns, TradingDaysPerYear, true)
	require.NoError(t, err)

	got, err := HistoricalVolatility(prices, TradingDaysPerYear)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
	assert.Positive(t, got)
}
