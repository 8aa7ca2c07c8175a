package strategy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tradesim/internal/models"
)

func barsFromCloses(closes []float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Date:   "2024-01-02",
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func TestSMACrossoverBuySignal(t *testing.T) {
	s := &SMACrossover{FastPeriod: 2, SlowPeriod: 3, Lookback: 10, RiskReward: 2.0}
	// Decline then recovery: fast SMA crosses above slow at the 10-close.
	bars := barsFromCloses([]float64{10, 9, 8, 7, 8, 10, 12})

	signals, err := s.GenerateSignals(bars)
	require.NoError(t, err)
	require.Len(t, signals, len(bars))

	for i := 0; i < 5; i++ {
		assert.Equal(t, models.SignalHold, signals[i].Signal, "bar %d should be HOLD", i)
	}

	buy := signals[5]
	require.Equal(t, models.SignalBuy, buy.Signal)
	assert.InDelta(t, 10.0, buy.EntryPrice, 1e-9)
	assert.InDelta(t, 6.0, buy.StopLoss, 1e-9) // lowest low in the window
	assert.InDelta(t, 18.0, buy.TakeProfit, 1e-9)
	assert.Equal(t, "sma_crossover_2_3", buy.StrategyName)
}

func TestSMACrossoverSellSignal(t *testing.T) {
	s := &SMACrossover{FastPeriod: 2, SlowPeriod: 3, Lookback: 3, RiskReward: 2.0}
	// Rally then breakdown: fast SMA crosses below slow at the final close.
	bars := barsFromCloses([]float64{10, 11, 12, 13, 12, 10, 7})

	signals, err := s.GenerateSignals(bars)
	require.NoError(t, err)

	var sells int
	for _, sig := range signals {
		if sig.Signal == models.SignalSell {
			sells++
			assert.Greater(t, sig.StopLoss, sig.EntryPrice, "short stop must sit above entry")
			assert.Less(t, sig.TakeProfit, sig.EntryPrice)
		}
	}
	assert.Equal(t, 1, sells)
}

func TestSMACrossoverRejectsBadPeriods(t *testing.T) {
	s := &SMACrossover{FastPeriod: 30, SlowPeriod: 10, Lookback: 10, RiskReward: 2.0}
	_, err := s.GenerateSignals(barsFromCloses([]float64{1, 2, 3}))
	assert.True(t, errors.Is(err, models.ErrInvalidConfig))
}

func TestSMACrossoverInsufficientData(t *testing.T) {
	s := NewSMACrossover() // slow period 30
	_, err := s.GenerateSignals(barsFromCloses([]float64{1, 2, 3}))
	assert.True(t, errors.Is(err, models.ErrInsufficientData))
}

func TestRSIReversionBuySignal(t *testing.T) {
	s := &RSIReversion{Period: 3, Oversold: 30, Overbought: 70, Lookback: 10, RiskReward: 1.5}
	// Straight decline pins RSI at 0; the first up-close lifts it back
	// through the oversold level.
	bars := barsFromCloses([]float64{10, 9, 8, 7, 6, 7})

	signals, err := s.GenerateSignals(bars)
	require.NoError(t, err)
	require.Len(t, signals, len(bars))

	buy := signals[5]
	require.Equal(t, models.SignalBuy, buy.Signal)
	assert.InDelta(t, 7.0, buy.EntryPrice, 1e-9)
	assert.InDelta(t, 5.0, buy.StopLoss, 1e-9)
	assert.InDelta(t, 10.0, buy.TakeProfit, 1e-9)

	for i := 0; i < 5; i++ {
		assert.Equal(t, models.SignalHold, signals[i].Signal)
	}
}

func TestRSIReversionRejectsBadLevels(t *testing.T) {
	s := &RSIReversion{Period: 3, Oversold: 70, Overbought: 30, Lookback: 10, RiskReward: 1.5}
	_, err := s.GenerateSignals(barsFromCloses([]float64{1, 2, 3, 4, 5}))
	assert.True(t, errors.Is(err, models.ErrInvalidConfig))
}

func TestDegenerateRiskYieldsHold(t *testing.T) {
	s := &SMACrossover{FastPeriod: 2, SlowPeriod: 3, Lookback: 10, RiskReward: 2.0}
	bars := barsFromCloses([]float64{10, 9, 8, 7, 8, 10, 12})
	// Raise all lows above the crossover close so the stop distance is
	// negative.
	for i := range bars {
		bars[i].Low = 50
	}

	signals, err := s.GenerateSignals(bars)
	require.NoError(t, err)
	for i, sig := range signals {
		assert.Equal(t, models.SignalHold, sig.Signal, "bar %d", i)
	}
}
