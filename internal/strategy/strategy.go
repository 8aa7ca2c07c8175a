// Package strategy contains the signal generators fed to the backtest and
// portfolio engines. A Strategy maps a bar series to a signal series of
// the same length; bars inside an indicator's warm-up period emit HOLD.
package strategy

import (
	"math"

	"github.com/yourusername/tradesim/internal/models"
)

// Strategy defines the interface for signal generators.
type Strategy interface {
	Name() string
	GenerateSignals(bars []models.Bar) ([]models.StrategySignal, error)
}

// closes extracts the close series from bars.
func closes(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// holdSeries pre-fills a signal slice with HOLD for every bar.
func holdSeries(n int) []models.StrategySignal {
	signals := make([]models.StrategySignal, n)
	for i := range signals {
		signals[i] = models.StrategySignal{Signal: models.SignalHold}
	}
	return signals
}

// recentLow returns the lowest low over the lookback bars ending at index i.
func recentLow(bars []models.Bar, i, lookback int) float64 {
	low := math.Inf(1)
	for j := i; j >= 0 && j > i-lookback; j-- {
		if bars[j].Low < low {
			low = bars[j].Low
		}
	}
	return low
}

// recentHigh returns the highest high over the lookback bars ending at index i.
func recentHigh(bars []models.Bar, i, lookback int) float64 {
	high := math.Inf(-1)
	for j := i; j >= 0 && j > i-lookback; j-- {
		if bars[j].High > high {
			high = bars[j].High
		}
	}
	return high
}

// longSignal builds a BUY signal with the stop at the recent low and the
// target a multiple of the stop distance above entry. Degenerate risk
// (stop at or above entry) yields HOLD.
func longSignal(bars []models.Bar, i, lookback int, riskReward float64, name string) models.StrategySignal {
	entry := bars[i].Close
	stop := recentLow(bars, i, lookback)
	risk := entry - stop
	if risk <= 0 {
		return models.StrategySignal{Signal: models.SignalHold}
	}
	return models.StrategySignal{
		Signal:          models.SignalBuy,
		EntryPrice:      entry,
		StopLoss:        stop,
		TakeProfit:      entry + riskReward*risk,
		StrategyName:    name,
		RiskRewardRatio: riskReward,
	}
}

// shortSignal mirrors longSignal with the stop at the recent high.
func shortSignal(bars []models.Bar, i, lookback int, riskReward float64, name string) models.StrategySignal {
	entry := bars[i].Close
	stop := recentHigh(bars, i, lookback)
	risk := stop - entry
	if risk <= 0 {
		return models.StrategySignal{Signal: models.SignalHold}
	}
	return models.StrategySignal{
		Signal:          models.SignalSell,
		EntryPrice:      entry,
		StopLoss:        stop,
		TakeProfit:      entry - riskReward*risk,
		StrategyName:    name,
		RiskRewardRatio: riskReward,
	}
}
