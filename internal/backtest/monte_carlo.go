package backtest

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/yourusername/tradesim/internal/models"
)

// DefaultSimulations is the Monte Carlo iteration count used when the
// caller passes zero.
const DefaultSimulations = 1000

// MonteCarloConfig configures the simulator. Seed 0 draws a seed from the
// clock; tests pass a fixed seed for reproducible distributions.
type MonteCarloConfig struct {
	Simulations int
	MaxDrawdown float64 // breach threshold in percent, 0 disables
	Seed        int64
}

// ConfidenceInterval is an empirical 5th/95th percentile band.
type ConfidenceInterval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// MonteCarloResult aggregates the resampled outcome distribution.
type MonteCarloResult struct {
	Simulations                 int                `json:"simulations"`
	MeanReturn                  float64            `json:"mean_return"`
	MeanDrawdown                float64            `json:"mean_drawdown"`
	ProbabilityOfProfit         float64            `json:"probability_of_profit"`
	ProbabilityOfDrawdownBreach float64            `json:"probability_of_drawdown_breach"`
	ReturnInterval              ConfidenceInterval `json:"return_interval"`
	DrawdownInterval            ConfidenceInterval `json:"drawdown_interval"`
	SharpeInterval              ConfidenceInterval `json:"sharpe_interval"`
}

// ToJSON exports the result to JSON.
func (m MonteCarloResult) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

// MonteCarloSimulator estimates outcome confidence intervals by
// resampling the realized trade sequence: each simulation shuffles the
// trades, reconstructs an equity curve from the shuffled PnLs and
// recomputes a reduced metric set from that curve.
type MonteCarloSimulator struct {
	config MonteCarloConfig
	rng    *rand.Rand
}

// NewMonteCarloSimulator creates a simulator.
func NewMonteCarloSimulator(cfg MonteCarloConfig) *MonteCarloSimulator {
	if cfg.Simulations <= 0 {
		cfg.Simulations = DefaultSimulations
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MonteCarloSimulator{config: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Run performs numSimulations resampled replays of the result's trade
// sequence. Zero falls back to the configured count.
func (s *MonteCarloSimulator) Run(result *Result, numSimulations int) (MonteCarloResult, error) {
	if result == nil || len(result.Trades) == 0 {
		return MonteCarloResult{}, fmt.Errorf("monte carlo: %w: result has no trades", models.ErrInsufficientData)
	}
	if numSimulations <= 0 {
		numSimulations = s.config.Simulations
	}

	pnls := make([]float64, len(result.Trades))
	for i, trade := range result.Trades {
		pnls[i] = trade.PnL
	}

	returns := make([]float64, numSimulations)
	drawdowns := make([]float64, numSimulations)
	sharpes := make([]float64, numSimulations)
	profitable := 0
	breached := 0

	shuffled := make([]float64, len(pnls))
	for i := 0; i < numSimulations; i++ {
		copy(shuffled, pnls)
		s.rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		curve := make(EquityCurve, 0, len(shuffled)+1)
		curve = append(curve, result.InitialCapital)
		equity := result.InitialCapital
		for _, pnl := range shuffled {
			equity += pnl
			curve = append(curve, equity)
		}

		totalReturn := (equity - result.InitialCapital) / result.InitialCapital * 100
		maxDD, _ := curve.MaxDrawdown()

		returns[i] = totalReturn
		drawdowns[i] = maxDD
		sharpes[i] = calculateSharpeRatio(curve.Returns())
		if totalReturn > 0 {
			profitable++
		}
		if s.config.MaxDrawdown > 0 && maxDD > s.config.MaxDrawdown {
			breached++
		}
	}

	return MonteCarloResult{
		Simulations:                 numSimulations,
		MeanReturn:                  average(returns),
		MeanDrawdown:                average(drawdowns),
		ProbabilityOfProfit:         float64(profitable) / float64(numSimulations) * 100,
		ProbabilityOfDrawdownBreach: float64(breached) / float64(numSimulations) * 100,
		ReturnInterval:              interval(returns),
		DrawdownInterval:            interval(drawdowns),
		SharpeInterval:              interval(sharpes),
	}, nil
}

func interval(values []float64) ConfidenceInterval {
	return ConfidenceInterval{
		Low:  percentile(values, 0.05),
		High: percentile(values, 0.95),
	}
}
