package models

// SignalType is a per-bar strategy decision.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// StrategySignal is one strategy decision aligned to a bar index. A HOLD
// during the strategy's warm-up period is expected filler, not an error.
// StopLoss and TakeProfit are optional; zero means unset.
type StrategySignal struct {
	Signal          SignalType `json:"signal"`
	EntryPrice      float64    `json:"entry_price"`
	StopLoss        float64    `json:"stop_loss,omitempty"`
	TakeProfit      float64    `json:"take_profit,omitempty"`
	StrategyName    string     `json:"strategy_name"`
	RiskRewardRatio float64    `json:"risk_reward_ratio"`
}

// IsEntry reports whether the signal requests a position.
func (s StrategySignal) IsEntry() bool {
	return s.Signal == SignalBuy || s.Signal == SignalSell
}
