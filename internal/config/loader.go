package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment
// variables. It expands ${VAR} placeholders in the YAML before parsing,
// and binds TRADESIM_-prefixed environment variables over file values.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults loads configuration with defaults for optional fields;
// a missing file is not an error, the defaults plus environment apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TRADESIM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tradesim")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("strategy.name", "sma_crossover")
	v.SetDefault("strategy.fast_period", 10)
	v.SetDefault("strategy.slow_period", 30)
	v.SetDefault("strategy.rsi_period", 14)
	v.SetDefault("strategy.oversold", 30)
	v.SetDefault("strategy.overbought", 70)
	v.SetDefault("strategy.lookback", 10)
	v.SetDefault("strategy.risk_reward", 2.0)

	v.SetDefault("backtest.initial_capital", 100_000)
	v.SetDefault("backtest.commission_rate", 0.001)
	v.SetDefault("backtest.slippage_rate", 0.0005)
	v.SetDefault("backtest.spread_rate", 0.0005)
	v.SetDefault("backtest.max_position_size", 0.2)
	v.SetDefault("backtest.max_drawdown", 0.25)
	v.SetDefault("backtest.use_stop_loss", true)
	v.SetDefault("backtest.use_take_profit", true)
	v.SetDefault("backtest.risk_per_trade", 0.02)
	v.SetDefault("backtest.max_open_positions", 1)
	v.SetDefault("backtest.rebalance_frequency", "monthly")
	v.SetDefault("backtest.impact_model", "linear")
	v.SetDefault("backtest.partial_fills", false)
	v.SetDefault("backtest.liquidity_threshold", 0.01)
	v.SetDefault("backtest.fill_model", "exponential")
	v.SetDefault("backtest.unfilled_strategy", "queue")
	v.SetDefault("backtest.max_queue_bars", 3)

	v.SetDefault("analysis.walk_forward.train_size", 252)
	v.SetDefault("analysis.walk_forward.test_size", 63)
	v.SetDefault("analysis.monte_carlo.simulations", 1000)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", ":9090")
}
