package backtest

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/tradesim/internal/execution"
	"github.com/yourusername/tradesim/internal/models"
)

const minBars = 2

// Engine replays one symbol's bar series against an aligned signal stream,
// opening and closing simulated positions through the execution cost
// models. An instance owns its trade list, equity curve and position slot
// exclusively; independent instances may run concurrently but a single
// instance is not safe for concurrent use. Reset clears state so the same
// instance can be reused across runs.
type Engine struct {
	config     Config
	slippage   *execution.SlippageModel
	commission *execution.CommissionCalculator
	fills      *execution.PartialFillSimulator
	latency    *execution.LatencySimulator
	logger     *logrus.Logger
	rng        *rand.Rand

	equity      float64
	peak        float64
	position    *models.Position
	trades      []models.Trade
	equityCurve EquityCurve
}

// Option customizes engine construction.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithSlippageModel replaces the default slippage model built from config.
func WithSlippageModel(model *execution.SlippageModel) Option {
	return func(e *Engine) { e.slippage = model }
}

// WithCommissionCalculator replaces the default flat-rate calculator.
func WithCommissionCalculator(calc *execution.CommissionCalculator) Option {
	return func(e *Engine) { e.commission = calc }
}

// WithPartialFills enables the liquidity-constrained fill simulator.
func WithPartialFills(sim *execution.PartialFillSimulator) Option {
	return func(e *Engine) { e.fills = sim }
}

// WithRand supplies the random source handed to the default slippage
// model for jitter. Tests inject a seeded generator for reproducible runs.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// NewEngine creates a backtest engine, validating the configuration and
// wiring default cost models from it.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{config: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logrus.New()
	}
	if e.slippage == nil {
		model, err := execution.NewSlippageModel(execution.SlippageConfig{
			BaseRate:       cfg.SlippageRate,
			SpreadRate:     cfg.SpreadRate,
			ImpactModel:    cfg.ImpactModel,
			AvgDailyVolume: cfg.AvgDailyVolume,
			PanicSlippage:  cfg.PanicSlippage,
		}, e.rng)
		if err != nil {
			return nil, err
		}
		e.slippage = model
	}
	if e.commission == nil {
		calc, err := execution.NewCommissionCalculator(cfg.CommissionRate)
		if err != nil {
			return nil, err
		}
		e.commission = calc
	}
	if e.fills == nil && cfg.PartialFills {
		sim, err := execution.NewPartialFillSimulator(execution.PartialFillConfig{
			LiquidityThreshold: cfg.LiquidityThreshold,
			FillModel:          cfg.FillModel,
			UnfilledStrategy:   cfg.UnfilledStrategy,
			MaxQueueBars:       cfg.MaxQueueBars,
		})
		if err != nil {
			return nil, err
		}
		e.fills = sim
	}
	if cfg.ExecutionDelayBars > 0 {
		e.latency = execution.NewLatencySimulator(cfg.ExecutionDelayBars)
	}

	e.Reset()
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Reset clears the trade list, equity curve and open position so the
// instance can replay again.
func (e *Engine) Reset() {
	e.equity = e.config.InitialCapital
	e.peak = e.config.InitialCapital
	e.position = nil
	e.trades = nil
	e.equityCurve = nil
	if e.fills != nil {
		e.fills.Reset()
	}
}

// RunBacktest performs one full deterministic replay of the bar series
// against the signal stream and returns the result value.
func (e *Engine) RunBacktest(signals []models.StrategySignal, bars []models.Bar, symbol string) (*Result, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("run backtest for %s: %w", symbol, models.ErrNoData)
	}
	if len(signals) != len(bars) {
		return nil, fmt.Errorf("run backtest for %s: %w: %d signals vs %d bars",
			symbol, models.ErrSignalMismatch, len(signals), len(bars))
	}
	if len(bars) < minBars {
		return nil, fmt.Errorf("run backtest for %s: %w: need at least %d bars",
			symbol, models.ErrInsufficientData, minBars)
	}

	e.Reset()
	e.equityCurve = append(e.equityCurve, e.equity)

	truncated := false
	haltReason := ""
	lastProcessed := 0

	for i := range bars {
		bar := bars[i]
		lastProcessed = i

		if e.fills != nil {
			e.applyQueuedFills(bar, i)
		}

		if e.position != nil && i > e.position.EntryIndex {
			e.evaluateExit(bar, i, signals[i], symbol)
		}
		if e.position == nil && signals[i].IsEntry() {
			e.tryOpen(signals[i], bars, i, symbol)
		}

		if e.equity > e.peak {
			e.peak = e.equity
		}
		e.equityCurve = append(e.equityCurve, e.equity)

		if e.config.MaxDrawdown > 0 && e.peak > 0 {
			drawdown := (e.peak - e.equity) / e.peak
			if drawdown > e.config.MaxDrawdown {
				truncated = true
				haltReason = fmt.Sprintf("max drawdown breached: %.2f%% > %.2f%%",
					drawdown*100, e.config.MaxDrawdown*100)
				e.logger.WithFields(logrus.Fields{
					"symbol":   symbol,
					"bar":      i,
					"drawdown": drawdown,
				}).Warn("Circuit breaker halted replay")
				break
			}
		}
	}

	// Whatever is still open when the replay stops is closed at the last
	// processed bar so the result's capital is fully realized.
	if e.position != nil {
		e.closePosition(bars[lastProcessed].Close, bars[lastProcessed], lastProcessed, models.ExitEndOfData, symbol)
		e.equityCurve[len(e.equityCurve)-1] = e.equity
	}

	metrics := CalculateMetrics(e.trades, e.equityCurve, e.config.InitialCapital)

	result := &Result{
		Symbol:         symbol,
		Trades:         append([]models.Trade{}, e.trades...),
		EquityCurve:    append(EquityCurve{}, e.equityCurve...),
		DrawdownCurve:  e.equityCurve.DrawdownCurve(),
		Metrics:        metrics,
		StartDate:      bars[0].Date,
		EndDate:        bars[lastProcessed].Date,
		Duration:       lastProcessed + 1,
		InitialCapital: e.config.InitialCapital,
		FinalCapital:   e.equity,
		Truncated:      truncated,
		HaltReason:     haltReason,
	}

	e.logger.WithFields(logrus.Fields{
		"symbol":        symbol,
		"trades":        len(result.Trades),
		"final_capital": result.FinalCapital,
		"truncated":     result.Truncated,
	}).Info("Backtest run complete")

	return result, nil
}

// applyQueuedFills retries the carryover queue against the new bar and
// folds any filled remainder into the open position, re-averaging the
// entry price. A remainder that outlives its position is dropped.
func (e *Engine) applyQueuedFills(bar models.Bar, index int) {
	if e.position == nil {
		e.fills.Reset()
		return
	}
	for _, fill := range e.fills.ProcessQueuedOrders(bar, index) {
		if fill.FilledQty <= 0 {
			continue
		}
		pos := e.position
		total := pos.Quantity + fill.FilledQty
		pos.EntryPrice = (pos.EntryPrice*pos.Quantity + fill.FillPrice*fill.FilledQty) / total
		pos.EntrySlippage += math.Abs(fill.FillPrice-fill.IntendedPrice) * fill.FilledQty
		pos.Quantity = total
	}
}

// evaluateExit checks exit conditions in priority order: stop-loss, then
// take-profit, then signal reversal.
func (e *Engine) evaluateExit(bar models.Bar, index int, signal models.StrategySignal, symbol string) {
	pos := e.position
	long := pos.Side == models.SideLong

	if e.config.UseStopLoss && pos.StopLoss > 0 {
		if (long && bar.Low <= pos.StopLoss) || (!long && bar.High >= pos.StopLoss) {
			e.closePosition(pos.StopLoss, bar, index, models.ExitStop, symbol)
			return
		}
	}
	if e.config.UseTakeProfit && pos.TakeProfit > 0 {
		if (long && bar.High >= pos.TakeProfit) || (!long && bar.Low <= pos.TakeProfit) {
			e.closePosition(pos.TakeProfit, bar, index, models.ExitTarget, symbol)
			return
		}
	}
	if signal.IsEntry() {
		reversal := (long && signal.Signal == models.SignalSell) ||
			(!long && signal.Signal == models.SignalBuy)
		if reversal {
			e.closePosition(bar.Close, bar, index, models.ExitSignal, symbol)
		}
	}
}

func (e *Engine) tryOpen(signal models.StrategySignal, bars []models.Bar, index int, symbol string) {
	if signal.Signal == models.SignalSell && !e.config.AllowShort {
		return
	}

	entryIndex := index
	intended := signal.EntryPrice
	if intended <= 0 {
		intended = bars[index].Close
	}
	if e.latency != nil {
		fill, ok := e.latency.Apply(bars, index)
		if !ok {
			return
		}
		entryIndex = fill.Index
		intended = fill.Price
	}

	side := models.SideLong
	orderSide := execution.Buy
	if signal.Signal == models.SignalSell {
		side = models.SideShort
		orderSide = execution.Sell
	}

	bar := bars[entryIndex]
	slip := e.slippage.Calculate(intended, orderSide, 0, &bar)
	entryPrice := slip.AdjustedPrice

	priceRisk := math.Abs(entryPrice - signal.StopLoss)
	if priceRisk == 0 {
		return
	}
	riskAmount := e.equity * e.config.RiskPerTrade
	quantity := math.Floor(riskAmount / priceRisk)
	maxQuantity := math.Floor(e.equity * e.config.MaxPositionSize / entryPrice)
	if maxQuantity < quantity {
		quantity = maxQuantity
	}
	if quantity <= 0 {
		return
	}

	// The size-dependent impact component needs a quantity, which only
	// exists after sizing: refine the entry price once with the sized order.
	slip = e.slippage.Calculate(intended, orderSide, quantity, &bar)
	entryPrice = slip.AdjustedPrice

	if e.fills != nil {
		fill := e.fills.SimulateFill(entryPrice, quantity, orderSide, bar, entryIndex)
		if fill.FilledQty <= 0 {
			return
		}
		quantity = fill.FilledQty
		entryPrice = fill.FillPrice
	}

	e.position = &models.Position{
		Symbol:          symbol,
		Side:            side,
		EntryPrice:      entryPrice,
		Quantity:        quantity,
		EntryDate:       bar.Date,
		EntryIndex:      entryIndex,
		StopLoss:        signal.StopLoss,
		TakeProfit:      signal.TakeProfit,
		StrategyName:    signal.StrategyName,
		RiskRewardRatio: signal.RiskRewardRatio,
		EntrySlippage:   math.Abs(entryPrice-intended) * quantity,
	}

	e.logger.WithFields(logrus.Fields{
		"symbol":   symbol,
		"side":     side,
		"price":    entryPrice,
		"quantity": quantity,
		"bar":      entryIndex,
	}).Debug("Position opened")
}

// closePosition realizes a trade. Slippage is embedded in the recorded
// entry and exit prices and reported on the trade; only fees are deducted
// from the directional PnL, so conservation holds exactly:
// finalCapital = initialCapital + sum of trade PnL.
func (e *Engine) closePosition(intendedExit float64, bar models.Bar, index int, reason models.ExitReason, symbol string) {
	pos := e.position

	exitSide := execution.Sell
	if pos.Side == models.SideShort {
		exitSide = execution.Buy
	}
	slip := e.slippage.Calculate(intendedExit, exitSide, pos.Quantity, &bar)
	exitPrice := slip.AdjustedPrice

	direction := 1.0
	if pos.Side == models.SideShort {
		direction = -1.0
	}
	gross := direction * (exitPrice - pos.EntryPrice) * pos.Quantity
	fees := e.commission.RoundTripFee(pos.EntryPrice*pos.Quantity, exitPrice*pos.Quantity)
	pnl := gross - fees

	entryCost := pos.EntryPrice * pos.Quantity
	pnlPercent := 0.0
	if entryCost > 0 {
		pnlPercent = pnl / entryCost * 100
	}

	trade := models.Trade{
		ID:              uuid.New(),
		Symbol:          symbol,
		Side:            pos.Side,
		EntryPrice:      pos.EntryPrice,
		ExitPrice:       exitPrice,
		Quantity:        pos.Quantity,
		EntryDate:       pos.EntryDate,
		ExitDate:        bar.Date,
		PnL:             pnl,
		PnLPercent:      pnlPercent,
		Fees:            fees,
		Slippage:        pos.EntrySlippage + math.Abs(exitPrice-intendedExit)*pos.Quantity,
		ExitReason:      reason,
		StrategyName:    pos.StrategyName,
		RiskRewardRatio: pos.RiskRewardRatio,
		HoldingPeriods:  index - pos.EntryIndex,
	}

	e.trades = append(e.trades, trade)
	e.equity += pnl
	e.position = nil
	if e.fills != nil {
		e.fills.Reset()
	}

	e.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"reason": reason,
		"pnl":    pnl,
		"equity": e.equity,
	}).Debug("Position closed")
}
