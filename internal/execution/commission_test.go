package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tradesim/internal/models"
)

func TestFlatCommission(t *testing.T) {
	calc, err := NewCommissionCalculator(0.001)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, calc.Calculate(10000), 1e-9)
	assert.Zero(t, calc.Calculate(0))
	assert.Zero(t, calc.Calculate(-500))
}

func TestTieredCommissionSelectsTierByNotional(t *testing.T) {
	calc, err := NewTieredCommissionCalculator([]CommissionTier{
		{MinNotional: 0, Rate: 0.002},
		{MinNotional: 10000, Rate: 0.001},
		{MinNotional: 100000, Rate: 0.0005},
	})
	require.NoError(t, err)

	assert.InDelta(t, 10.0, calc.Calculate(5000), 1e-9)     // 0.002
	assert.InDelta(t, 50.0, calc.Calculate(50000), 1e-9)    // 0.001
	assert.InDelta(t, 100.0, calc.Calculate(200000), 1e-9)  // 0.0005
	assert.InDelta(t, 10.0, calc.Calculate(10000), 1e-9)    // boundary falls into higher tier
}

func TestCommissionRoundsToCents(t *testing.T) {
	calc, err := NewCommissionCalculator(0.00015)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, calc.Calculate(10001), 0.005)
}

func TestRoundTripFee(t *testing.T) {
	calc, err := NewCommissionCalculator(0.001)
	require.NoError(t, err)
	assert.InDelta(t, 21.0, calc.RoundTripFee(10000, 11000), 1e-9)
}

func TestCommissionRejectsBadInput(t *testing.T) {
	_, err := NewCommissionCalculator(-0.1)
	require.ErrorIs(t, err, models.ErrInvalidConfig)

	_, err = NewTieredCommissionCalculator(nil)
	require.ErrorIs(t, err, models.ErrInvalidConfig)
}
