package portfolio

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/tradesim/internal/backtest"
	"github.com/yourusername/tradesim/internal/models"
)

// portfolioBars builds consecutive daily bars starting 2024-01-02 so a
// nine-bar fixture stays inside one calendar month.
func portfolioBars(closes []float64) []models.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Date:   start.AddDate(0, 0, i).Format("2006-01-02"),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

// testConfig uses short indicator periods so small fixtures produce
// signals: the fast/slow SMA cross fires on the sixth bar of a
// decline-then-recovery series.
func testConfig() Config {
	return Config{
		InitialCapital:       10_000,
		CommissionRate:       0,
		MaxOpenPositions:     1,
		CorrelationThreshold: 0.8,
		Sizing:               SizingEqualWeight,
		RebalanceFrequency:   backtest.RebalanceMonthly,
		RebalanceThreshold:   0,
		FastPeriod:           2,
		SlowPeriod:           3,
		RSIPeriod:            2,
		RSIOverbought:        90,
	}
}

var crossoverCloses = []float64{10, 9, 8, 7, 8, 10, 12, 13, 14}

func TestPortfolioSingleSymbolRun(t *testing.T) {
	engine, err := NewEngine(testConfig())
	require.NoError(t, err)
	require.NoError(t, engine.LoadData("AAA", portfolioBars(crossoverCloses)))

	result, err := engine.Run()
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.Equal(t, "AAA", trade.Symbol)
	assert.Equal(t, models.ExitEndOfData, trade.ExitReason)
	assert.InDelta(t, 10.0, trade.EntryPrice, 1e-9)
	assert.InDelta(t, 14.0, trade.ExitPrice, 1e-9)
	assert.InDelta(t, 1000.0, trade.Quantity, 1e-9)
	assert.InDelta(t, 4000.0, trade.PnL, 1e-9)

	require.Len(t, result.EquityCurve, len(crossoverCloses))
	assert.InDelta(t, 14_000.0, result.FinalCapital, 1e-9)

	// Conservation across the shared ledger.
	sum := 0.0
	for _, tr := range result.Trades {
		sum += tr.PnL
	}
	assert.InDelta(t, result.InitialCapital+sum, result.FinalCapital, 1e-9)
}

func TestPortfolioCorrelationGate(t *testing.T) {
	cfg := testConfig()
	cfg.MaxOpenPositions = 2

	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	// Identical series correlate at exactly 1, above the 0.8 gate.
	require.NoError(t, engine.LoadData("AAA", portfolioBars(crossoverCloses)))
	require.NoError(t, engine.LoadData("BBB", portfolioBars(crossoverCloses)))

	result, err := engine.Run()
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	assert.Equal(t, "AAA", result.Trades[0].Symbol, "first loaded symbol wins, the second is gated")
	assert.InDelta(t, 1.0, result.Correlations().Get("AAA", "BBB"), 1e-9)
}

func TestPortfolioCorrelationGateDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MaxOpenPositions = 2
	cfg.CorrelationThreshold = 1 // disabled

	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	require.NoError(t, engine.LoadData("AAA", portfolioBars(crossoverCloses)))
	require.NoError(t, engine.LoadData("BBB", portfolioBars(crossoverCloses)))

	result, err := engine.Run()
	require.NoError(t, err)
	assert.Len(t, result.Trades, 2)
}

func TestPortfolioMaxOpenPositions(t *testing.T) {
	cfg := testConfig()
	cfg.CorrelationThreshold = 1

	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	for _, sym := range []string{"AAA", "BBB", "CCC"} {
		require.NoError(t, engine.LoadData(sym, portfolioBars(crossoverCloses)))
	}

	result, err := engine.Run()
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	assert.Equal(t, "AAA", result.Trades[0].Symbol)
}

func TestPortfolioThresholdRebalance(t *testing.T) {
	cfg := testConfig()
	cfg.MaxOpenPositions = 2
	cfg.CorrelationThreshold = 1
	cfg.RebalanceThreshold = 0.05

	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	// AAA doubles right after entry while BBB stays flat, drifting both
	// weights well past the 5% band around the 50% target.
	require.NoError(t, engine.LoadData("AAA", portfolioBars([]float64{10, 9, 8, 7, 8, 10, 20, 20, 20})))
	require.NoError(t, engine.LoadData("BBB", portfolioBars([]float64{10, 9, 8, 7, 8, 10, 10, 10, 10})))

	result, err := engine.Run()
	require.NoError(t, err)

	require.NotEmpty(t, result.RebalanceEvents)
	event := result.RebalanceEvents[0]
	assert.Equal(t, RebalanceThreshold, event.Reason)
	assert.Equal(t, "2024-01-08", event.Date)
	assert.InDelta(t, 2.0/3.0, event.BeforeWeights["AAA"], 1e-9)
	assert.InDelta(t, 0.5, event.AfterWeights["AAA"], 1e-9)
	assert.InDelta(t, 0.5, event.AfterWeights["BBB"], 1e-9)
	assert.Greater(t, event.Turnover, 0.0)
}

func TestPortfolioScheduledRebalance(t *testing.T) {
	cfg := testConfig()
	cfg.RebalanceFrequency = backtest.RebalanceDaily

	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	require.NoError(t, engine.LoadData("AAA", portfolioBars(crossoverCloses)))

	result, err := engine.Run()
	require.NoError(t, err)

	require.NotEmpty(t, result.RebalanceEvents)
	for _, event := range result.RebalanceEvents {
		assert.Equal(t, RebalanceScheduled, event.Reason)
	}
}

func TestPortfolioProgressCallback(t *testing.T) {
	var calls []int
	total := 0
	engine, err := NewEngine(testConfig(), WithProgress(func(processed, n int) {
		calls = append(calls, processed)
		total = n
	}))
	require.NoError(t, err)
	require.NoError(t, engine.LoadData("AAA", portfolioBars(crossoverCloses)))

	_, err = engine.Run()
	require.NoError(t, err)

	require.Len(t, calls, len(crossoverCloses))
	assert.Equal(t, len(crossoverCloses), total)
	assert.Equal(t, 1, calls[0])
	assert.Equal(t, len(crossoverCloses), calls[len(calls)-1])
}

func TestPortfolioUnionDateAxis(t *testing.T) {
	cfg := testConfig()
	cfg.CorrelationThreshold = 1
	cfg.MaxOpenPositions = 2

	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	// BBB's calendar is offset one day from AAA's.
	aaa := portfolioBars(crossoverCloses)
	bbb := portfolioBars(crossoverCloses)
	for i := range bbb {
		ts, err := bbb[i].Time()
		require.NoError(t, err)
		bbb[i].Date = ts.AddDate(0, 0, 1).Format("2006-01-02")
	}
	require.NoError(t, engine.LoadData("AAA", aaa))
	require.NoError(t, engine.LoadData("BBB", bbb))

	result, err := engine.Run()
	require.NoError(t, err)

	// Nine dates each, offset by one day: ten distinct replay days.
	assert.Len(t, result.EquityCurve, 10)
	assert.Equal(t, "2024-01-02", result.StartDate)
	assert.Equal(t, "2024-01-11", result.EndDate)
}

func TestPortfolioLoadDataRejections(t *testing.T) {
	engine, err := NewEngine(testConfig())
	require.NoError(t, err)

	assert.Error(t, engine.LoadData("", portfolioBars(crossoverCloses)))
	assert.True(t, errors.Is(engine.LoadData("AAA", nil), models.ErrNoData))

	outOfOrder := portfolioBars([]float64{1, 2, 3})
	outOfOrder[2].Date = outOfOrder[0].Date
	assert.Error(t, engine.LoadData("AAA", outOfOrder))
}

func TestPortfolioRunWithoutSymbols(t *testing.T) {
	engine, err := NewEngine(testConfig())
	require.NoError(t, err)
	_, err = engine.Run()
	assert.True(t, errors.Is(err, models.ErrNoData))
}

func TestPortfolioConfigValidation(t *testing.T) {
	bad := func(mutate func(*Config)) Config {
		cfg := DefaultConfig()
		mutate(&cfg)
		return cfg
	}

	cases := map[string]Config{
		"zero capital":       bad(func(c *Config) { c.InitialCapital = 0 }),
		"no positions":       bad(func(c *Config) { c.MaxOpenPositions = 0 }),
		"bad sizing":         bad(func(c *Config) { c.Sizing = "martingale" }),
		"bad fixed size":     bad(func(c *Config) { c.Sizing = SizingFixed; c.FixedPositionSize = 0 }),
		"bad frequency":      bad(func(c *Config) { c.RebalanceFrequency = "hourly" }),
		"bad correlation":    bad(func(c *Config) { c.CorrelationThreshold = 0 }),
		"inverted periods":   bad(func(c *Config) { c.FastPeriod = 30; c.SlowPeriod = 10 }),
		"bad rsi overbought": bad(func(c *Config) { c.RSIOverbought = 150 }),
	}
	for name, cfg := range cases {
		_, err := NewEngine(cfg)
		assert.True(t, errors.Is(err, models.ErrInvalidConfig), name)
	}
}

func TestCorrelationMatrixRepeatable(t *testing.T) {
	data := map[string][]models.Bar{
		"AAA": portfolioBars([]float64{10, 11, 9, 12, 10, 13, 11, 14, 12}),
		"BBB": portfolioBars([]float64{20, 19, 22, 18, 23, 19, 24, 20, 25}),
	}
	symbols := []string{"AAA", "BBB"}

	first := NewCorrelationMatrix(data, symbols)
	corr := first.Get("AAA", "BBB")
	assert.NotZero(t, corr)

	// Summation runs in sorted date order, so repeated builds must agree
	// bit for bit.
	for i := 0; i < 20; i++ {
		next := NewCorrelationMatrix(data, symbols)
		require.Equal(t, corr, next.Get("AAA", "BBB"))
	}
}
