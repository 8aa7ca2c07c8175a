package execution

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/yourusername/tradesim/internal/models"
)

// CommissionTier maps a minimum notional to the rate charged once the
// trade's notional reaches it. Tiers are matched highest-threshold-first.
type CommissionTier struct {
	MinNotional float64 `json:"min_notional"`
	Rate        float64 `json:"rate"`
}

// CommissionCalculator computes fees on a trade's notional, either at a
// flat rate or from a tiered rate table. Fees are charged on both the entry
// and exit notional and rounded to cents before they hit the ledger.
type CommissionCalculator struct {
	flatRate float64
	tiers    []CommissionTier
}

// NewCommissionCalculator creates a flat-rate calculator.
func NewCommissionCalculator(rate float64) (*CommissionCalculator, error) {
	if rate < 0 {
		return nil, fmt.Errorf("%w: commission rate cannot be negative", models.ErrInvalidConfig)
	}
	return &CommissionCalculator{flatRate: rate}, nil
}

// NewTieredCommissionCalculator creates a calculator from a volume tier
// table. Tiers are sorted ascending by threshold; the first tier should
// start at zero so every notional has a rate.
func NewTieredCommissionCalculator(tiers []CommissionTier) (*CommissionCalculator, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: tiered commission requires at least one tier", models.ErrInvalidConfig)
	}
	sorted := append([]CommissionTier{}, tiers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinNotional < sorted[j].MinNotional })
	for _, tier := range sorted {
		if tier.Rate < 0 || tier.MinNotional < 0 {
			return nil, fmt.Errorf("%w: commission tier values cannot be negative", models.ErrInvalidConfig)
		}
	}
	return &CommissionCalculator{tiers: sorted}, nil
}

// Calculate returns the fee for a given notional, rounded to cents.
func (c *CommissionCalculator) Calculate(notional float64) float64 {
	if notional <= 0 {
		return 0
	}
	rate := c.flatRate
	for _, tier := range c.tiers {
		if notional >= tier.MinNotional {
			rate = tier.Rate
		}
	}
	fee := decimal.NewFromFloat(notional).Mul(decimal.NewFromFloat(rate)).Round(2)
	result, _ := fee.Float64()
	return result
}

// RoundTripFee returns the combined entry and exit fee for a position.
func (c *CommissionCalculator) RoundTripFee(entryNotional, exitNotional float64) float64 {
	return c.Calculate(entryNotional) + c.Calculate(exitNotional)
}
