// Package portfolio replays the single-asset execution logic across many
// symbols in simulated time, sharing one cash ledger and rebalancing
// position weights on schedule or on drift.
package portfolio

import (
	"fmt"

	"github.com/yourusername/tradesim/internal/backtest"
	"github.com/yourusername/tradesim/internal/models"
)

// SizingPolicy selects how new entries are sized.
type SizingPolicy string

const (
	// SizingEqualWeight targets 1/maxOpenPositions of equity per position.
	SizingEqualWeight SizingPolicy = "equal_weight"
	// SizingRiskParity is currently implemented as equal weight; proper
	// inverse-volatility weights need a realized-vol estimate per symbol.
	SizingRiskParity SizingPolicy = "risk_parity"
	// SizingFixed targets a fixed fraction of equity per position.
	SizingFixed SizingPolicy = "fixed"
)

// Config holds the portfolio engine parameters.
type Config struct {
	InitialCapital   float64 `json:"initial_capital"`
	CommissionRate   float64 `json:"commission_rate"`
	MaxOpenPositions int     `json:"max_open_positions"`

	// CorrelationThreshold blocks a new entry when its absolute daily-return
	// correlation with any open holding is at or above this value. 1 disables
	// the gate.
	CorrelationThreshold float64 `json:"correlation_threshold"`

	Sizing            SizingPolicy `json:"sizing"`
	FixedPositionSize float64      `json:"fixed_position_size"`

	RebalanceFrequency backtest.RebalanceFrequency `json:"rebalance_frequency"`
	// RebalanceThreshold additionally triggers a rebalance when any open
	// position's weight drifts from its target by more than this fraction
	// of equity. 0 disables drift rebalancing.
	RebalanceThreshold float64 `json:"rebalance_threshold"`

	// Entry policy: fast/slow SMA crossover confirmed by RSI staying under
	// the overbought level.
	FastPeriod    int     `json:"fast_period"`
	SlowPeriod    int     `json:"slow_period"`
	RSIPeriod     int     `json:"rsi_period"`
	RSIOverbought float64 `json:"rsi_overbought"`
}

// DefaultConfig returns a portfolio configuration with conservative
// defaults.
func DefaultConfig() Config {
	return Config{
		InitialCapital:       100_000,
		CommissionRate:       0.001,
		MaxOpenPositions:     5,
		CorrelationThreshold: 0.8,
		Sizing:               SizingEqualWeight,
		FixedPositionSize:    0.2,
		RebalanceFrequency:   backtest.RebalanceMonthly,
		RebalanceThreshold:   0.05,
		FastPeriod:           10,
		SlowPeriod:           30,
		RSIPeriod:            14,
		RSIOverbought:        70,
	}
}

// Validate checks the configuration, wrapping models.ErrInvalidConfig.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive, got %f", models.ErrInvalidConfig, c.InitialCapital)
	}
	if c.CommissionRate < 0 {
		return fmt.Errorf("%w: commission rate must not be negative", models.ErrInvalidConfig)
	}
	if c.MaxOpenPositions <= 0 {
		return fmt.Errorf("%w: max open positions must be positive, got %d", models.ErrInvalidConfig, c.MaxOpenPositions)
	}
	if c.CorrelationThreshold <= 0 || c.CorrelationThreshold > 1 {
		return fmt.Errorf("%w: correlation threshold must be in (0, 1], got %f", models.ErrInvalidConfig, c.CorrelationThreshold)
	}
	switch c.Sizing {
	case SizingEqualWeight, SizingRiskParity:
	case SizingFixed:
		if c.FixedPositionSize <= 0 || c.FixedPositionSize > 1 {
			return fmt.Errorf("%w: fixed position size must be in (0, 1], got %f", models.ErrInvalidConfig, c.FixedPositionSize)
		}
	default:
		return fmt.Errorf("%w: unknown sizing policy %q", models.ErrInvalidConfig, c.Sizing)
	}
	switch c.RebalanceFrequency {
	case backtest.RebalanceDaily, backtest.RebalanceWeekly, backtest.RebalanceMonthly:
	default:
		return fmt.Errorf("%w: unknown rebalance frequency %q", models.ErrInvalidConfig, c.RebalanceFrequency)
	}
	if c.RebalanceThreshold < 0 || c.RebalanceThreshold >= 1 {
		return fmt.Errorf("%w: rebalance threshold must be in [0, 1), got %f", models.ErrInvalidConfig, c.RebalanceThreshold)
	}
	if c.FastPeriod <= 0 || c.SlowPeriod <= c.FastPeriod {
		return fmt.Errorf("%w: fast period %d must be positive and below slow period %d", models.ErrInvalidConfig, c.FastPeriod, c.SlowPeriod)
	}
	if c.RSIPeriod <= 0 {
		return fmt.Errorf("%w: rsi period must be positive, got %d", models.ErrInvalidConfig, c.RSIPeriod)
	}
	if c.RSIOverbought <= 0 || c.RSIOverbought > 100 {
		return fmt.Errorf("%w: rsi overbought must be in (0, 100], got %f", models.ErrInvalidConfig, c.RSIOverbought)
	}
	return nil
}

// targetWeight is the per-position equity fraction the sizing policy aims
// for; rebalancing pulls drifted positions back to it.
func (c Config) targetWeight() float64 {
	if c.Sizing == SizingFixed {
		return c.FixedPositionSize
	}
	return 1.0 / float64(c.MaxOpenPositions)
}
