package backtest

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/tradesim/internal/models"
)

// Default walk-forward window sizes in bars: one trading year of training
// followed by one quarter out of sample.
const (
	DefaultTrainSize = 252
	DefaultTestSize  = 63
)

// WalkForwardWindow is one rolling train/test partition with its scores.
type WalkForwardWindow struct {
	WindowID    int                `json:"window_id"`
	TrainStart  int                `json:"train_start"`
	TrainEnd    int                `json:"train_end"`
	TestStart   int                `json:"test_start"`
	TestEnd     int                `json:"test_end"`
	InSample    PerformanceMetrics `json:"in_sample"`
	OutOfSample PerformanceMetrics `json:"out_of_sample"`

	// RobustnessScore is the mean of the out/in ratios for return, Sharpe
	// and win rate, each capped at 1, scaled to 0..100. Identical in- and
	// out-of-sample metrics score exactly 100.
	RobustnessScore    float64 `json:"robustness_score"`
	ParameterStability float64 `json:"parameter_stability"`
}

// WalkForwardAnalyzer partitions history into rolling train/test windows
// and runs a fresh engine on each slice, scoring out-of-sample robustness
// against in-sample performance.
type WalkForwardAnalyzer struct {
	config Config
	logger *logrus.Logger
}

// NewWalkForwardAnalyzer creates an analyzer that builds engines from the
// given configuration.
func NewWalkForwardAnalyzer(cfg Config, logger *logrus.Logger) (*WalkForwardAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &WalkForwardAnalyzer{config: cfg, logger: logger}, nil
}

// Run slides consecutive train+test windows forward by the test size and
// backtests each slice independently. Zero sizes fall back to the
// defaults.
func (a *WalkForwardAnalyzer) Run(signals []models.StrategySignal, bars []models.Bar, symbol string, trainSize, testSize int) ([]WalkForwardWindow, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("walk-forward for %s: %w", symbol, models.ErrNoData)
	}
	if len(signals) != len(bars) {
		return nil, fmt.Errorf("walk-forward for %s: %w", symbol, models.ErrSignalMismatch)
	}
	if trainSize <= 0 {
		trainSize = DefaultTrainSize
	}
	if testSize <= 0 {
		testSize = DefaultTestSize
	}
	if len(bars) < trainSize+testSize {
		return nil, fmt.Errorf("walk-forward for %s: %w: need %d bars, have %d",
			symbol, models.ErrInsufficientData, trainSize+testSize, len(bars))
	}

	engine, err := NewEngine(a.config, WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	var windows []WalkForwardWindow
	windowID := 0
	for start := 0; start+trainSize+testSize <= len(bars); start += testSize {
		trainEnd := start + trainSize
		testEnd := trainEnd + testSize
		windowID++

		inResult, err := engine.RunBacktest(signals[start:trainEnd], bars[start:trainEnd], symbol)
		if err != nil {
			return nil, fmt.Errorf("walk-forward window %d in-sample: %w", windowID, err)
		}
		outResult, err := engine.RunBacktest(signals[trainEnd:testEnd], bars[trainEnd:testEnd], symbol)
		if err != nil {
			return nil, fmt.Errorf("walk-forward window %d out-of-sample: %w", windowID, err)
		}

		window := WalkForwardWindow{
			WindowID:    windowID,
			TrainStart:  start,
			TrainEnd:    trainEnd,
			TestStart:   trainEnd,
			TestEnd:     testEnd,
			InSample:    inResult.Metrics,
			OutOfSample: outResult.Metrics,
		}
		window.RobustnessScore = calculateRobustness(inResult.Metrics, outResult.Metrics)
		window.ParameterStability = calculateParameterStability(inResult.Metrics, outResult.Metrics)
		windows = append(windows, window)

		a.logger.WithFields(logrus.Fields{
			"window":     windowID,
			"robustness": window.RobustnessScore,
			"stability":  window.ParameterStability,
		}).Debug("Walk-forward window complete")
	}

	return windows, nil
}

func calculateRobustness(in, out PerformanceMetrics) float64 {
	ratios := []float64{
		cappedRatio(out.TotalReturn, in.TotalReturn),
		cappedRatio(out.SharpeRatio, in.SharpeRatio),
		cappedRatio(out.WinRate, in.WinRate),
	}
	return average(ratios) * 100
}

// cappedRatio compares an out-of-sample value against its in-sample
// counterpart, clamped to [0, 1]: matching or exceeding in-sample scores a
// full 1, degradation scores proportionally less.
func cappedRatio(out, in float64) float64 {
	if in == 0 {
		if out >= 0 {
			return 1
		}
		return 0
	}
	ratio := out / in
	if ratio > 1 {
		return 1
	}
	if ratio < 0 {
		return 0
	}
	return ratio
}

func calculateParameterStability(in, out PerformanceMetrics) float64 {
	return math.Max(0, 100-2*math.Abs(in.MaxDrawdown-out.MaxDrawdown))
}

// AggregateRobustness averages the robustness score across windows.
func AggregateRobustness(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	sum := 0.0
	for _, w := range windows {
		sum += w.RobustnessScore
	}
	return sum / float64(len(windows))
}

// WalkForwardToJSON exports windows to JSON.
func WalkForwardToJSON(windows []WalkForwardWindow) string {
	data, _ := json.Marshal(windows)
	return string(data)
}
