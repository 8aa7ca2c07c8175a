// Package logger provides run-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// RunLogger provides dedicated logging for simulation runs.
type RunLogger struct {
	*logrus.Entry
}

// NewRunLogger creates a new run logger.
func NewRunLogger(baseLogger *logrus.Logger) *RunLogger {
	return &RunLogger{
		Entry: baseLogger.WithField("component", "backtest"),
	}
}

// LogRunStart logs the start of a backtest run.
func (rl *RunLogger) LogRunStart(symbol, strategyName string, bars int, initialCapital float64) {
	rl.WithFields(logrus.Fields{
		"symbol":          symbol,
		"strategy_name":   strategyName,
		"bars":            bars,
		"initial_capital": initialCapital,
	}).Info("Backtest run started")
}

// LogRunComplete logs the outcome of a backtest run.
func (rl *RunLogger) LogRunComplete(symbol string, trades int, finalCapital, totalReturn, maxDrawdown float64, truncated bool) {
	rl.WithFields(logrus.Fields{
		"symbol":        symbol,
		"trades":        trades,
		"final_capital": finalCapital,
		"total_return":  totalReturn,
		"max_drawdown":  maxDrawdown,
		"truncated":     truncated,
	}).Info("Backtest run completed")
}

// LogWalkForward logs an aggregate walk-forward outcome.
func (rl *RunLogger) LogWalkForward(symbol string, windows int, trainSize, testSize int, robustness float64) {
	rl.WithFields(logrus.Fields{
		"symbol":     symbol,
		"windows":    windows,
		"train_size": trainSize,
		"test_size":  testSize,
		"robustness": robustness,
	}).Info("Walk-forward analysis completed")
}

// LogMonteCarlo logs a Monte Carlo aggregate.
func (rl *RunLogger) LogMonteCarlo(symbol string, simulations int, probabilityOfProfit, meanReturn float64) {
	rl.WithFields(logrus.Fields{
		"symbol":                symbol,
		"simulations":           simulations,
		"probability_of_profit": probabilityOfProfit,
		"mean_return":           meanReturn,
	}).Info("Monte Carlo simulation completed")
}

// LogPortfolioRun logs a portfolio replay outcome.
func (rl *RunLogger) LogPortfolioRun(symbols, trades, rebalances int, finalCapital float64) {
	rl.WithFields(logrus.Fields{
		"symbols":       symbols,
		"trades":        trades,
		"rebalances":    rebalances,
		"final_capital": finalCapital,
	}).Info("Portfolio replay completed")
}
