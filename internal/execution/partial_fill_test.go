package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tradesim/internal/models"
)

func newFillSimulator(t *testing.T, cfg PartialFillConfig) *PartialFillSimulator {
	t.Helper()
	sim, err := NewPartialFillSimulator(cfg)
	require.NoError(t, err)
	return sim
}

func TestSmallOrderFillsCompletely(t *testing.T) {
	sim := newFillSimulator(t, PartialFillConfig{LiquidityThreshold: 0.01})
	bar := models.Bar{Date: "2024-03-01", Close: 100, Volume: 1_000_000}

	result := sim.SimulateFill(100, 5000, Buy, bar, 0)
	assert.Equal(t, 5000.0, result.FilledQty)
	assert.Zero(t, result.RemainingQty)
	assert.Equal(t, 100.0, result.FillPrice)
	assert.Equal(t, 1.0, result.FillRate)
	assert.Zero(t, sim.QueueDepth())
}

func TestLargeOrderFillsPartiallyWithImpact(t *testing.T) {
	sim := newFillSimulator(t, PartialFillConfig{LiquidityThreshold: 0.01, FillModel: FillExponential})
	bar := models.Bar{Date: "2024-03-01", Close: 100, Volume: 1_000_000}

	result := sim.SimulateFill(100, 50_000, Buy, bar, 0)
	assert.Greater(t, result.FilledQty, 0.0)
	assert.Less(t, result.FilledQty, 50_000.0)
	assert.Greater(t, result.FillPrice, 100.0)
	assert.LessOrEqual(t, result.Impact, fillImpactCap)
	assert.True(t, result.Queued)
	assert.Equal(t, 1, sim.QueueDepth())
}

func TestSellImpactLowersFillPrice(t *testing.T) {
	sim := newFillSimulator(t, PartialFillConfig{LiquidityThreshold: 0.01})
	bar := models.Bar{Date: "2024-03-01", Close: 100, Volume: 1_000_000}

	result := sim.SimulateFill(100, 50_000, Sell, bar, 0)
	assert.Less(t, result.FillPrice, 100.0)
}

func TestCancelStrategyDropsRemainder(t *testing.T) {
	sim := newFillSimulator(t, PartialFillConfig{LiquidityThreshold: 0.01, UnfilledStrategy: UnfilledCancel})
	bar := models.Bar{Date: "2024-03-01", Close: 100, Volume: 1_000_000}

	result := sim.SimulateFill(100, 50_000, Buy, bar, 0)
	assert.True(t, result.Cancelled)
	assert.Zero(t, sim.QueueDepth())
}

func TestQueuedOrdersRetryAndExpire(t *testing.T) {
	sim := newFillSimulator(t, PartialFillConfig{
		LiquidityThreshold:   0.01,
		FillModel:            FillLinear,
		MinImmediateFillRate: 0.1,
		MaxImmediateFillRate: 0.5,
		MaxQueueBars:         2,
	})
	thin := models.Bar{Date: "2024-03-01", Close: 100, Volume: 100_000}

	first := sim.SimulateFill(100, 50_000, Buy, thin, 0)
	require.True(t, first.Queued)
	require.Equal(t, 1, sim.QueueDepth())

	// Retried on the next thin bar, still not fully filled.
	retries := sim.ProcessQueuedOrders(thin, 1)
	require.Len(t, retries, 1)
	assert.Greater(t, retries[0].FilledQty, 0.0)
	assert.Equal(t, 1, sim.QueueDepth())

	// Second retry hits the age limit and the remainder is cancelled.
	expired := sim.ProcessQueuedOrders(thin, 2)
	require.Len(t, expired, 1)
	assert.True(t, expired[0].Cancelled)
	assert.Zero(t, sim.QueueDepth())
}

func TestQueuedOrderFillsAgainstLiquidBar(t *testing.T) {
	sim := newFillSimulator(t, PartialFillConfig{LiquidityThreshold: 0.01, MaxQueueBars: 5})
	thin := models.Bar{Date: "2024-03-01", Close: 100, Volume: 100_000}
	deep := models.Bar{Date: "2024-03-02", Close: 100, Volume: 100_000_000}

	sim.SimulateFill(100, 50_000, Buy, thin, 0)
	require.Equal(t, 1, sim.QueueDepth())

	results := sim.ProcessQueuedOrders(deep, 1)
	require.Len(t, results, 1)
	assert.Zero(t, results[0].RemainingQty)
	assert.Zero(t, sim.QueueDepth())
}

func TestCustomFillFunc(t *testing.T) {
	sim := newFillSimulator(t, PartialFillConfig{
		LiquidityThreshold:   0.01,
		FillModel:            FillCustom,
		CustomFill:           func(ratio, threshold float64) float64 { return 0.25 },
		MinImmediateFillRate: 0.1,
		MaxImmediateFillRate: 1.0,
	})
	bar := models.Bar{Date: "2024-03-01", Close: 100, Volume: 1_000_000}

	result := sim.SimulateFill(100, 40_000, Buy, bar, 0)
	assert.Equal(t, 10_000.0, result.FilledQty)
}

func TestCustomFillRequiresFunc(t *testing.T) {
	_, err := NewPartialFillSimulator(PartialFillConfig{FillModel: FillCustom})
	require.ErrorIs(t, err, models.ErrInvalidConfig)
}

func TestResetClearsQueue(t *testing.T) {
	sim := newFillSimulator(t, PartialFillConfig{LiquidityThreshold: 0.01})
	thin := models.Bar{Date: "2024-03-01", Close: 100, Volume: 100_000}
	sim.SimulateFill(100, 50_000, Buy, thin, 0)
	require.Equal(t, 1, sim.QueueDepth())

	sim.Reset()
	assert.Zero(t, sim.QueueDepth())
}
