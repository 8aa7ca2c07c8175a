package models

import "github.com/google/uuid"

// ExitReason explains why a position was closed.
type ExitReason string

const (
	ExitTarget       ExitReason = "target"
	ExitStop         ExitReason = "stop"
	ExitSignal       ExitReason = "signal"
	ExitTrailingStop ExitReason = "trailing_stop"
	ExitTime         ExitReason = "time"
	ExitEndOfData    ExitReason = "end_of_data"
)

// Trade is a closed round trip. Trades are immutable once appended; the
// ordered trade sequence plus the equity curve are the engine's outputs.
type Trade struct {
	ID              uuid.UUID  `json:"id"`
	Symbol          string     `json:"symbol"`
	Side            Side       `json:"side"`
	EntryPrice      float64    `json:"entry_price"`
	ExitPrice       float64    `json:"exit_price"`
	Quantity        float64    `json:"quantity"`
	EntryDate       string     `json:"entry_date"`
	ExitDate        string     `json:"exit_date"`
	PnL             float64    `json:"pnl"`
	PnLPercent      float64    `json:"pnl_percent"`
	Fees            float64    `json:"fees"`
	Slippage        float64    `json:"slippage"`
	ExitReason      ExitReason `json:"exit_reason"`
	StrategyName    string     `json:"strategy_name"`
	RiskRewardRatio float64    `json:"risk_reward_ratio"`
	HoldingPeriods  int        `json:"holding_periods"`
}

// Direction returns +1 for long trades and -1 for short trades.
func (t Trade) Direction() float64 {
	if t.Side == SideShort {
		return -1
	}
	return 1
}
