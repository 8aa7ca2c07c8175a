package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tradesim/internal/backtest"
	"github.com/yourusername/tradesim/internal/execution"
	"github.com/yourusername/tradesim/internal/portfolio"
)

const validYAML = `
app:
  name: tradesim
  environment: development
  log_level: info
data:
  csv_path: testdata/bars.csv
  symbol: ACME
strategy:
  name: sma_crossover
  fast_period: 10
  slow_period: 30
  rsi_period: 14
  oversold: 30
  overbought: 70
  lookback: 10
  risk_reward: 2.0
backtest:
  initial_capital: 100000
  commission_rate: 0.001
  slippage_rate: 0.0005
  spread_rate: 0.0005
  max_position_size: 0.2
  max_drawdown: 0.25
  use_stop_loss: true
  use_take_profit: true
  risk_per_trade: 0.02
  max_open_positions: 1
  rebalance_frequency: monthly
  impact_model: square_root
  partial_fills: true
  liquidity_threshold: 0.01
  fill_model: exponential
  unfilled_strategy: queue
  max_queue_bars: 3
analysis:
  walk_forward:
    enabled: true
    train_size: 252
    test_size: 63
  monte_carlo:
    enabled: true
    simulations: 1000
    seed: 42
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "tradesim", cfg.App.Name)
	assert.Equal(t, "ACME", cfg.Data.Symbol)
	assert.Equal(t, 252, cfg.Analysis.WalkForward.TrainSize)
	assert.Equal(t, int64(42), cfg.Analysis.MonteCarlo.Seed)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("TRADESIM_TEST_SYMBOL", "WIDGET")
	yaml := validYAML
	path := writeConfig(t, yaml)

	// Swap the symbol for a ${VAR} reference.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	replaced := string(data)
	replaced = replaceOnce(replaced, "symbol: ACME", "symbol: ${TRADESIM_TEST_SYMBOL}")
	require.NoError(t, os.WriteFile(path, []byte(replaced), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "WIDGET", cfg.Data.Symbol)
}

func replaceOnce(s, old, new string) string {
	return strings.Replace(s, old, new, 1)
}

func TestLoadWithDefaultsMissingFileStillNeedsData(t *testing.T) {
	// Defaults cover everything except the data section, which has no
	// sensible default.
	_, err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Data")
}

func TestValidationRejections(t *testing.T) {
	cases := map[string]struct {
		old, new string
	}{
		"bad log level":   {"log_level: info", "log_level: verbose"},
		"bad environment": {"environment: development", "environment: prod"},
		"bad strategy":    {"name: sma_crossover", "name: martingale"},
		"bad impact":      {"impact_model: square_root", "impact_model: cubic"},
		"bad frequency":   {"rebalance_frequency: monthly", "rebalance_frequency: hourly"},
		"bad fill model":  {"fill_model: exponential", "fill_model: stochastic"},
		"bad unfilled":    {"unfilled_strategy: queue", "unfilled_strategy: retry"},
		"zero capital":    {"initial_capital: 100000", "initial_capital: 0"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, replaceOnce(validYAML, c.old, c.new)))
			assert.Error(t, err)
		})
	}
}

func TestCrossFieldValidation(t *testing.T) {
	bad := replaceOnce(validYAML, "train_size: 252", "train_size: 10")
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test_size")

	withPortfolio := validYAML + "\nportfolio:\n  enabled: true\n"
	_, err = Load(writeConfig(t, withPortfolio))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no symbol files")
}

func TestEngineConfigConversion(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	engineCfg := cfg.EngineConfig()
	assert.InDelta(t, 100_000.0, engineCfg.InitialCapital, 1e-9)
	assert.Equal(t, backtest.RebalanceMonthly, engineCfg.RebalanceFrequency)
	assert.Equal(t, execution.ImpactSquareRoot, engineCfg.ImpactModel)
	assert.True(t, engineCfg.PartialFills)
	assert.Equal(t, execution.FillExponential, engineCfg.FillModel)
	assert.Equal(t, execution.UnfilledQueue, engineCfg.UnfilledStrategy)
	assert.Equal(t, 3, engineCfg.MaxQueueBars)
	require.NoError(t, engineCfg.Validate())
}

func TestPortfolioEngineConfigDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	pcfg := cfg.PortfolioEngineConfig()
	assert.Equal(t, portfolio.SizingEqualWeight, pcfg.Sizing)
	require.NoError(t, pcfg.Validate())
}

func TestBuildStrategy(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, "sma_crossover_10_30", cfg.BuildStrategy().Name())

	cfg.Strategy.Name = "rsi_reversion"
	assert.Equal(t, "rsi_reversion_14", cfg.BuildStrategy().Name())
}
