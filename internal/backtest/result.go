package backtest

import (
	"encoding/json"

	"github.com/yourusername/tradesim/internal/models"
)

// Result is the value returned by one full replay. Trades and the equity
// curve are the engine's sole outputs besides metrics; callers decide how
// to store them.
type Result struct {
	Symbol         string             `json:"symbol"`
	Trades         []models.Trade     `json:"trades"`
	EquityCurve    EquityCurve        `json:"equity_curve"`
	DrawdownCurve  []float64          `json:"drawdown_curve"`
	Metrics        PerformanceMetrics `json:"metrics"`
	StartDate      string             `json:"start_date"`
	EndDate        string             `json:"end_date"`
	Duration       int                `json:"duration"`
	InitialCapital float64            `json:"initial_capital"`
	FinalCapital   float64            `json:"final_capital"`

	// Truncated is set when the max-drawdown circuit breaker halted the
	// replay before the full requested range was processed. EndDate then
	// refers to the last bar actually replayed.
	Truncated  bool   `json:"truncated"`
	HaltReason string `json:"halt_reason,omitempty"`
}

// ToJSON exports the result to JSON.
func (r *Result) ToJSON() string {
	data, _ := json.Marshal(r)
	return string(data)
}
