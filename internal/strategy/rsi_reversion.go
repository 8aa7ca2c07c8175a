package strategy

import (
	"fmt"

	"github.com/yourusername/tradesim/internal/indicator"
	"github.com/yourusername/tradesim/internal/models"
)

// RSIReversion is a mean-reversion strategy: BUY when RSI recovers up
// through the oversold level, SELL when it drops back through the
// overbought level.
type RSIReversion struct {
	Period     int
	Oversold   float64
	Overbought float64
	Lookback   int
	RiskReward float64
}

// NewRSIReversion creates the strategy with the conventional 14-period
// RSI and 30/70 levels.
func NewRSIReversion() *RSIReversion {
	return &RSIReversion{
		Period:     14,
		Oversold:   30,
		Overbought: 70,
		Lookback:   10,
		RiskReward: 1.5,
	}
}

// Name returns the strategy name.
func (s *RSIReversion) Name() string {
	return fmt.Sprintf("rsi_reversion_%d", s.Period)
}

// GenerateSignals produces one signal per bar. Bars inside the RSI
// warm-up are HOLD.
func (s *RSIReversion) GenerateSignals(bars []models.Bar) ([]models.StrategySignal, error) {
	if s.Period <= 0 || s.Oversold >= s.Overbought {
		return nil, fmt.Errorf("rsi reversion: %w: period %d, levels %.1f/%.1f",
			models.ErrInvalidConfig, s.Period, s.Oversold, s.Overbought)
	}

	rsi, err := indicator.RSI(closes(bars), s.Period)
	if err != nil {
		return nil, fmt.Errorf("rsi reversion: %w", err)
	}

	signals := holdSeries(len(bars))
	for i := s.Period + 1; i < len(bars); i++ {
		prev, cur := rsi[i-1], rsi[i]
		switch {
		case prev < s.Oversold && cur >= s.Oversold:
			signals[i] = longSignal(bars, i, s.Lookback, s.RiskReward, s.Name())
		case prev > s.Overbought && cur <= s.Overbought:
			signals[i] = shortSignal(bars, i, s.Lookback, s.RiskReward, s.Name())
		}
	}
	return signals, nil
}
