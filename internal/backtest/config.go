// Package backtest implements the deterministic trade-simulation core:
// a single-asset replay engine with realistic execution costs, the
// performance metrics calculator, and the walk-forward and Monte Carlo
// analyzers that wrap the engine as a black box.
package backtest

import (
	"fmt"

	"github.com/yourusername/tradesim/internal/execution"
	"github.com/yourusername/tradesim/internal/models"
)

// RebalanceFrequency is a calendar rebalancing schedule.
type RebalanceFrequency string

const (
	RebalanceDaily   RebalanceFrequency = "daily"
	RebalanceWeekly  RebalanceFrequency = "weekly"
	RebalanceMonthly RebalanceFrequency = "monthly"
)

// Config holds one engine instance's immutable run parameters. Fractional
// fields (commission, slippage, risk, position size, drawdown) are rates,
// not percents: 0.02 means 2%.
type Config struct {
	InitialCapital     float64                    `json:"initial_capital"`
	CommissionRate     float64                    `json:"commission_rate"`
	SlippageRate       float64                    `json:"slippage_rate"`
	SpreadRate         float64                    `json:"spread_rate"`
	MaxPositionSize    float64                    `json:"max_position_size"`
	MaxDrawdown        float64                    `json:"max_drawdown"`
	AllowShort         bool                       `json:"allow_short"`
	UseStopLoss        bool                       `json:"use_stop_loss"`
	UseTakeProfit      bool                       `json:"use_take_profit"`
	RiskPerTrade       float64                    `json:"risk_per_trade"`
	MaxOpenPositions   int                        `json:"max_open_positions"`
	RebalanceFrequency RebalanceFrequency         `json:"rebalance_frequency"`
	ImpactModel        execution.ImpactModel      `json:"impact_model"`
	AvgDailyVolume     float64                    `json:"avg_daily_volume"`
	PanicSlippage      float64                    `json:"panic_slippage"`
	ExecutionDelayBars int                        `json:"execution_delay_bars"`
	PartialFills       bool                       `json:"partial_fills"`
	LiquidityThreshold float64                    `json:"liquidity_threshold"`
	FillModel          execution.FillModel        `json:"fill_model"`
	UnfilledStrategy   execution.UnfilledStrategy `json:"unfilled_strategy"`
	MaxQueueBars       int                        `json:"max_queue_bars"`
}

// DefaultConfig returns a conservative baseline configuration.
func DefaultConfig() Config {
	return Config{
		InitialCapital:     100_000,
		CommissionRate:     0.001,
		SlippageRate:       0.0005,
		SpreadRate:         0.0005,
		MaxPositionSize:    0.2,
		MaxDrawdown:        0.25,
		UseStopLoss:        true,
		UseTakeProfit:      true,
		RiskPerTrade:       0.02,
		MaxOpenPositions:   1,
		RebalanceFrequency: RebalanceMonthly,
		ImpactModel:        execution.ImpactLinear,
	}
}

// Validate validates engine configuration at construction time.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive", models.ErrInvalidConfig)
	}
	if c.MaxOpenPositions <= 0 {
		return fmt.Errorf("%w: max open positions must be positive", models.ErrInvalidConfig)
	}
	if c.CommissionRate < 0 || c.SlippageRate < 0 || c.SpreadRate < 0 {
		return fmt.Errorf("%w: cost rates cannot be negative", models.ErrInvalidConfig)
	}
	if c.RiskPerTrade <= 0 || c.RiskPerTrade > 1 {
		return fmt.Errorf("%w: risk per trade must be in (0, 1]", models.ErrInvalidConfig)
	}
	if c.MaxPositionSize <= 0 || c.MaxPositionSize > 1 {
		return fmt.Errorf("%w: max position size must be in (0, 1]", models.ErrInvalidConfig)
	}
	if c.MaxDrawdown < 0 || c.MaxDrawdown > 1 {
		return fmt.Errorf("%w: max drawdown must be in [0, 1]", models.ErrInvalidConfig)
	}
	switch c.RebalanceFrequency {
	case "", RebalanceDaily, RebalanceWeekly, RebalanceMonthly:
	default:
		return fmt.Errorf("%w: unknown rebalance frequency %q", models.ErrInvalidConfig, c.RebalanceFrequency)
	}
	switch c.ImpactModel {
	case "", execution.ImpactLinear, execution.ImpactSquareRoot, execution.ImpactAlmgrenChriss:
	default:
		return fmt.Errorf("%w: unknown impact model %q", models.ErrInvalidConfig, c.ImpactModel)
	}
	if c.ExecutionDelayBars < 0 {
		return fmt.Errorf("%w: execution delay cannot be negative", models.ErrInvalidConfig)
	}
	if c.PartialFills {
		// FillCustom needs a fill function, which only WithPartialFills can
		// supply.
		switch c.FillModel {
		case "", execution.FillLinear, execution.FillExponential:
		default:
			return fmt.Errorf("%w: unknown fill model %q", models.ErrInvalidConfig, c.FillModel)
		}
		switch c.UnfilledStrategy {
		case "", execution.UnfilledQueue, execution.UnfilledCancel, execution.UnfilledHold:
		default:
			return fmt.Errorf("%w: unknown unfilled strategy %q", models.ErrInvalidConfig, c.UnfilledStrategy)
		}
		if c.LiquidityThreshold < 0 {
			return fmt.Errorf("%w: liquidity threshold cannot be negative", models.ErrInvalidConfig)
		}
		if c.MaxQueueBars < 0 {
			return fmt.Errorf("%w: max queue bars cannot be negative", models.ErrInvalidConfig)
		}
	}
	return nil
}
