package indicator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tradesim/internal/models"
)

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	sma, err := SMA(values, 3)
	require.NoError(t, err)
	require.Len(t, sma, len(values))

	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))
	assert.InDelta(t, 2.0, sma[2], 1e-9)
	assert.InDelta(t, 3.0, sma[3], 1e-9)
	assert.InDelta(t, 4.0, sma[4], 1e-9)
}

func TestSMAInsufficientData(t *testing.T) {
	_, err := SMA([]float64{1, 2}, 3)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))

	_, err = SMA([]float64{1, 2, 3}, 0)
	assert.Error(t, err)
}

func TestEMAConvergesToConstant(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 10
	}
	ema, err := EMA(values, 5)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(ema[0]))
	assert.InDelta(t, 10.0, ema[len(ema)-1], 1e-9)
}

func TestEMAReactsFasterThanSMA(t *testing.T) {
	// Step change: EMA should sit closer to the new level than SMA.
	values := []float64{10, 10, 10, 10, 10, 20, 20, 20}
	ema, err := EMA(values, 5)
	require.NoError(t, err)
	sma, err := SMA(values, 5)
	require.NoError(t, err)

	last := len(values) - 1
	assert.Greater(t, ema[last], sma[last])
}

func TestRSIAllGains(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7}
	rsi, err := RSI(values, 3)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(rsi[2]))
	for i := 3; i < len(rsi); i++ {
		assert.InDelta(t, 100.0, rsi[i], 1e-9)
	}
}

func TestRSIFlatSeriesReadsFifty(t *testing.T) {
	values := []float64{5, 5, 5, 5, 5, 5}
	rsi, err := RSI(values, 3)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, rsi[len(rsi)-1], 1e-9)
}

func TestRSIWilderSmoothing(t *testing.T) {
	// Classic 14-period textbook check: alternating moves keep RSI strictly
	// between the extremes.
	values := []float64{44, 44.5, 44.25, 44.75, 44.5, 45, 44.75, 45.25, 45, 45.5, 45.25, 45.75, 45.5, 46, 45.75, 46.25}
	rsi, err := RSI(values, 14)
	require.NoError(t, err)

	last := rsi[len(rsi)-1]
	assert.Greater(t, last, 50.0)
	assert.Less(t, last, 100.0)
}

func TestRSIInsufficientData(t *testing.T) {
	_, err := RSI([]float64{1, 2, 3}, 3)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))
}

func TestCrossovers(t *testing.T) {
	fast := []float64{1, 2, 3, 2, 1}
	slow := []float64{2, 2, 2, 2, 2}

	assert.False(t, CrossedAbove(fast, slow, 1))
	assert.True(t, CrossedAbove(fast, slow, 2))
	assert.False(t, CrossedAbove(fast, slow, 3))
	// Touching the slow line at i=3 is not a cross; the cross completes at i=4.
	assert.False(t, CrossedBelow(fast, slow, 3))
	assert.True(t, CrossedBelow(fast, slow, 4))

	// Out-of-range and NaN guards.
	assert.False(t, CrossedAbove(fast, slow, 0))
	assert.False(t, CrossedAbove(fast, slow, 99))
	withNaN := []float64{math.NaN(), 3, 3, 3, 3}
	assert.False(t, CrossedAbove(withNaN, slow, 1))
}
