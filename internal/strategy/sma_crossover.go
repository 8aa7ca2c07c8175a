package strategy

import (
	"fmt"

	"github.com/yourusername/tradesim/internal/indicator"
	"github.com/yourusername/tradesim/internal/models"
)

// SMACrossover emits BUY when the fast moving average crosses above the
// slow one and SELL when it crosses back below.
type SMACrossover struct {
	FastPeriod int
	SlowPeriod int
	Lookback   int // stop placement window
	RiskReward float64
}

// NewSMACrossover creates the strategy with 10/30 periods, a 10-bar stop
// window and a 2:1 reward-to-risk target.
func NewSMACrossover() *SMACrossover {
	return &SMACrossover{
		FastPeriod: 10,
		SlowPeriod: 30,
		Lookback:   10,
		RiskReward: 2.0,
	}
}

// Name returns the strategy name.
func (s *SMACrossover) Name() string {
	return fmt.Sprintf("sma_crossover_%d_%d", s.FastPeriod, s.SlowPeriod)
}

// GenerateSignals produces one signal per bar. Bars before the slow
// average warms up are HOLD.
func (s *SMACrossover) GenerateSignals(bars []models.Bar) ([]models.StrategySignal, error) {
	if s.FastPeriod <= 0 || s.SlowPeriod <= s.FastPeriod {
		return nil, fmt.Errorf("sma crossover: %w: fast %d must be positive and below slow %d",
			models.ErrInvalidConfig, s.FastPeriod, s.SlowPeriod)
	}

	prices := closes(bars)
	fast, err := indicator.SMA(prices, s.FastPeriod)
	if err != nil {
		return nil, fmt.Errorf("sma crossover: %w", err)
	}
	slow, err := indicator.SMA(prices, s.SlowPeriod)
	if err != nil {
		return nil, fmt.Errorf("sma crossover: %w", err)
	}

	signals := holdSeries(len(bars))
	for i := range bars {
		switch {
		case indicator.CrossedAbove(fast, slow, i):
			signals[i] = longSignal(bars, i, s.Lookback, s.RiskReward, s.Name())
		case indicator.CrossedBelow(fast, slow, i):
			signals[i] = shortSignal(bars, i, s.Lookback, s.RiskReward, s.Name())
		}
	}
	return signals, nil
}
