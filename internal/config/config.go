// Package config provides configuration management for the tradesim
// application.
package config

import (
	"github.com/yourusername/tradesim/internal/backtest"
	"github.com/yourusername/tradesim/internal/execution"
	"github.com/yourusername/tradesim/internal/portfolio"
	"github.com/yourusername/tradesim/internal/strategy"
)

// Config represents the complete application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Data      DataConfig      `mapstructure:"data" validate:"required"`
	Strategy  StrategyConfig  `mapstructure:"strategy" validate:"required"`
	Backtest  BacktestConfig  `mapstructure:"backtest" validate:"required"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration.
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DataConfig points the loader at the bar series to replay.
type DataConfig struct {
	CSVPath string `mapstructure:"csv_path" validate:"required"`
	Symbol  string `mapstructure:"symbol" validate:"required"`
}

// StrategyConfig selects and parameterizes the signal generator.
type StrategyConfig struct {
	Name       string  `mapstructure:"name" validate:"required,strategyname"`
	FastPeriod int     `mapstructure:"fast_period" validate:"gt=0"`
	SlowPeriod int     `mapstructure:"slow_period" validate:"gtfield=FastPeriod"`
	RSIPeriod  int     `mapstructure:"rsi_period" validate:"gt=0"`
	Oversold   float64 `mapstructure:"oversold" validate:"gte=0,lt=100"`
	Overbought float64 `mapstructure:"overbought" validate:"gt=0,lte=100,gtfield=Oversold"`
	Lookback   int     `mapstructure:"lookback" validate:"gt=0"`
	RiskReward float64 `mapstructure:"risk_reward" validate:"gt=0"`
}

// BacktestConfig mirrors the engine run parameters. Fractional fields are
// rates, not percents.
type BacktestConfig struct {
	InitialCapital     float64 `mapstructure:"initial_capital" validate:"required,gt=0"`
	CommissionRate     float64 `mapstructure:"commission_rate" validate:"gte=0,lte=0.1"`
	SlippageRate       float64 `mapstructure:"slippage_rate" validate:"gte=0"`
	SpreadRate         float64 `mapstructure:"spread_rate" validate:"gte=0"`
	MaxPositionSize    float64 `mapstructure:"max_position_size" validate:"required,gt=0,lte=1"`
	MaxDrawdown        float64 `mapstructure:"max_drawdown" validate:"gte=0,lte=1"`
	AllowShort         bool    `mapstructure:"allow_short"`
	UseStopLoss        bool    `mapstructure:"use_stop_loss"`
	UseTakeProfit      bool    `mapstructure:"use_take_profit"`
	RiskPerTrade       float64 `mapstructure:"risk_per_trade" validate:"required,gt=0,lte=1"`
	MaxOpenPositions   int     `mapstructure:"max_open_positions" validate:"required,gt=0"`
	RebalanceFrequency string  `mapstructure:"rebalance_frequency" validate:"omitempty,rebalancefreq"`
	ImpactModel        string  `mapstructure:"impact_model" validate:"omitempty,impactmodel"`
	AvgDailyVolume     float64 `mapstructure:"avg_daily_volume" validate:"gte=0"`
	PanicSlippage      float64 `mapstructure:"panic_slippage" validate:"gte=0"`
	ExecutionDelayBars int     `mapstructure:"execution_delay_bars" validate:"gte=0"`
	PartialFills       bool    `mapstructure:"partial_fills"`
	LiquidityThreshold float64 `mapstructure:"liquidity_threshold" validate:"gte=0"`
	FillModel          string  `mapstructure:"fill_model" validate:"omitempty,fillmodel"`
	UnfilledStrategy   string  `mapstructure:"unfilled_strategy" validate:"omitempty,unfilledstrategy"`
	MaxQueueBars       int     `mapstructure:"max_queue_bars" validate:"gte=0"`
}

// AnalysisConfig controls the walk-forward and Monte Carlo wrappers.
type AnalysisConfig struct {
	WalkForward WalkForwardConfig `mapstructure:"walk_forward"`
	MonteCarlo  MonteCarloConfig  `mapstructure:"monte_carlo"`
}

// WalkForwardConfig controls rolling train/test analysis.
type WalkForwardConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	TrainSize int  `mapstructure:"train_size" validate:"gte=0"`
	TestSize  int  `mapstructure:"test_size" validate:"gte=0"`
}

// MonteCarloConfig controls trade-sequence resampling.
type MonteCarloConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Simulations int     `mapstructure:"simulations" validate:"gte=0"`
	Seed        int64   `mapstructure:"seed"`
	MaxDrawdown float64 `mapstructure:"max_drawdown" validate:"gte=0"`
}

// PortfolioConfig configures the multi-asset engine. Files maps each
// symbol to its CSV bar series.
type PortfolioConfig struct {
	Enabled              bool              `mapstructure:"enabled"`
	Files                map[string]string `mapstructure:"files"`
	InitialCapital       float64           `mapstructure:"initial_capital" validate:"omitempty,gt=0"`
	CommissionRate       float64           `mapstructure:"commission_rate" validate:"gte=0,lte=0.1"`
	MaxOpenPositions     int               `mapstructure:"max_open_positions" validate:"omitempty,gt=0"`
	CorrelationThreshold float64           `mapstructure:"correlation_threshold" validate:"omitempty,gt=0,lte=1"`
	Sizing               string            `mapstructure:"sizing" validate:"omitempty,sizingpolicy"`
	FixedPositionSize    float64           `mapstructure:"fixed_position_size" validate:"omitempty,gt=0,lte=1"`
	RebalanceFrequency   string            `mapstructure:"rebalance_frequency" validate:"omitempty,rebalancefreq"`
	RebalanceThreshold   float64           `mapstructure:"rebalance_threshold" validate:"gte=0,lt=1"`
	FastPeriod           int               `mapstructure:"fast_period" validate:"omitempty,gt=0"`
	SlowPeriod           int               `mapstructure:"slow_period" validate:"omitempty,gtfield=FastPeriod"`
	RSIPeriod            int               `mapstructure:"rsi_period" validate:"omitempty,gt=0"`
	RSIOverbought        float64           `mapstructure:"rsi_overbought" validate:"omitempty,gt=0,lte=100"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// EngineConfig converts the loaded backtest section into the engine's
// run parameters.
func (c *Config) EngineConfig() backtest.Config {
	b := c.Backtest
	return backtest.Config{
		InitialCapital:     b.InitialCapital,
		CommissionRate:     b.CommissionRate,
		SlippageRate:       b.SlippageRate,
		SpreadRate:         b.SpreadRate,
		MaxPositionSize:    b.MaxPositionSize,
		MaxDrawdown:        b.MaxDrawdown,
		AllowShort:         b.AllowShort,
		UseStopLoss:        b.UseStopLoss,
		UseTakeProfit:      b.UseTakeProfit,
		RiskPerTrade:       b.RiskPerTrade,
		MaxOpenPositions:   b.MaxOpenPositions,
		RebalanceFrequency: backtest.RebalanceFrequency(b.RebalanceFrequency),
		ImpactModel:        execution.ImpactModel(b.ImpactModel),
		AvgDailyVolume:     b.AvgDailyVolume,
		PanicSlippage:      b.PanicSlippage,
		ExecutionDelayBars: b.ExecutionDelayBars,
		PartialFills:       b.PartialFills,
		LiquidityThreshold: b.LiquidityThreshold,
		FillModel:          execution.FillModel(b.FillModel),
		UnfilledStrategy:   execution.UnfilledStrategy(b.UnfilledStrategy),
		MaxQueueBars:       b.MaxQueueBars,
	}
}

// PortfolioEngineConfig converts the portfolio section, falling back to
// defaults for unset fields.
func (c *Config) PortfolioEngineConfig() portfolio.Config {
	p := c.Portfolio
	cfg := portfolio.DefaultConfig()
	if p.InitialCapital > 0 {
		cfg.InitialCapital = p.InitialCapital
	}
	cfg.CommissionRate = p.CommissionRate
	if p.MaxOpenPositions > 0 {
		cfg.MaxOpenPositions = p.MaxOpenPositions
	}
	if p.CorrelationThreshold > 0 {
		cfg.CorrelationThreshold = p.CorrelationThreshold
	}
	if p.Sizing != "" {
		cfg.Sizing = portfolio.SizingPolicy(p.Sizing)
	}
	if p.FixedPositionSize > 0 {
		cfg.FixedPositionSize = p.FixedPositionSize
	}
	if p.RebalanceFrequency != "" {
		cfg.RebalanceFrequency = backtest.RebalanceFrequency(p.RebalanceFrequency)
	}
	cfg.RebalanceThreshold = p.RebalanceThreshold
	if p.FastPeriod > 0 {
		cfg.FastPeriod = p.FastPeriod
	}
	if p.SlowPeriod > 0 {
		cfg.SlowPeriod = p.SlowPeriod
	}
	if p.RSIPeriod > 0 {
		cfg.RSIPeriod = p.RSIPeriod
	}
	if p.RSIOverbought > 0 {
		cfg.RSIOverbought = p.RSIOverbought
	}
	return cfg
}

// BuildStrategy constructs the configured signal generator.
func (c *Config) BuildStrategy() strategy.Strategy {
	s := c.Strategy
	switch s.Name {
	case "rsi_reversion":
		return &strategy.RSIReversion{
			Period:     s.RSIPeriod,
			Oversold:   s.Oversold,
			Overbought: s.Overbought,
			Lookback:   s.Lookback,
			RiskReward: s.RiskReward,
		}
	default:
		return &strategy.SMACrossover{
			FastPeriod: s.FastPeriod,
			SlowPeriod: s.SlowPeriod,
			Lookback:   s.Lookback,
			RiskReward: s.RiskReward,
		}
	}
}
