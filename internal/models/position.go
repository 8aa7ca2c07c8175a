package models

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Position is an open position owned exclusively by one engine instance.
// It exists from open-signal acceptance until an exit condition fires or
// the data ends. Quantity is a whole number of shares stored as float64.
type Position struct {
	Symbol          string  `json:"symbol"`
	Side            Side    `json:"side"`
	EntryPrice      float64 `json:"entry_price"`
	Quantity        float64 `json:"quantity"`
	EntryDate       string  `json:"entry_date"`
	EntryIndex      int     `json:"entry_index"`
	StopLoss        float64 `json:"stop_loss,omitempty"`
	TakeProfit      float64 `json:"take_profit,omitempty"`
	StrategyName    string  `json:"strategy_name"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`
	EntryFees       float64 `json:"entry_fees"`
	EntrySlippage   float64 `json:"entry_slippage"`
}
