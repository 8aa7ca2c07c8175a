package portfolio

import (
	"math"
	"time"

	"github.com/yourusername/tradesim/internal/backtest"
)

// RebalanceReason tags why a rebalance fired.
type RebalanceReason string

const (
	RebalanceScheduled RebalanceReason = "scheduled"
	RebalanceThreshold RebalanceReason = "threshold"
)

// RebalanceEvent records one rebalance with position weights before and
// after the adjustment.
type RebalanceEvent struct {
	Date          string             `json:"date"`
	Reason        RebalanceReason    `json:"reason"`
	BeforeWeights map[string]float64 `json:"before_weights"`
	AfterWeights  map[string]float64 `json:"after_weights"`
	Turnover      float64            `json:"turnover"` // traded notional
}

// scheduleDue reports whether the calendar transition between the
// previous replay date and the current one crosses the schedule boundary.
func scheduleDue(freq backtest.RebalanceFrequency, prev, cur time.Time) bool {
	if prev.IsZero() {
		return false
	}
	switch freq {
	case backtest.RebalanceDaily:
		return !prev.Equal(cur)
	case backtest.RebalanceWeekly:
		py, pw := prev.ISOWeek()
		cy, cw := cur.ISOWeek()
		return py != cy || pw != cw
	case backtest.RebalanceMonthly:
		return prev.Year() != cur.Year() || prev.Month() != cur.Month()
	default:
		return false
	}
}

// driftExceeded reports whether any weight deviates from target by more
// than the threshold. A zero threshold disables drift rebalancing.
func driftExceeded(weights map[string]float64, target, threshold float64) bool {
	if threshold <= 0 {
		return false
	}
	for _, w := range weights {
		if math.Abs(w-target) > threshold {
			return true
		}
	}
	return false
}
