package portfolio

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/tradesim/internal/backtest"
	"github.com/yourusername/tradesim/internal/execution"
	"github.com/yourusername/tradesim/internal/indicator"
	"github.com/yourusername/tradesim/internal/models"
)

const portfolioStrategyName = "portfolio_sma_rsi"

// ProgressFunc receives replay progress after each simulated day.
type ProgressFunc func(processed, total int)

// Result is the outcome of a portfolio replay.
type Result struct {
	Symbols         []string                     `json:"symbols"`
	Trades          []models.Trade               `json:"trades"`
	EquityCurve     backtest.EquityCurve         `json:"equity_curve"`
	DrawdownCurve   []float64                    `json:"drawdown_curve"`
	Metrics         backtest.PerformanceMetrics  `json:"metrics"`
	RebalanceEvents []RebalanceEvent             `json:"rebalance_events"`
	StartDate       string                       `json:"start_date"`
	EndDate         string                       `json:"end_date"`
	InitialCapital  float64                      `json:"initial_capital"`
	FinalCapital    float64                      `json:"final_capital"`

	correlations *CorrelationMatrix
}

// Correlations exposes the upfront correlation matrix used for entry
// gating.
func (r *Result) Correlations() *CorrelationMatrix {
	return r.correlations
}

// Engine is the multi-asset portfolio engine. Load each symbol's bars
// with LoadData, then Run replays the union of all dates day by day
// against a shared cash ledger.
type Engine struct {
	config     Config
	logger     *logrus.Logger
	commission *execution.CommissionCalculator
	progress   ProgressFunc

	data    map[string][]models.Bar
	symbols []string // insertion order, replay determinism
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProgress registers a per-day progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// NewEngine creates a portfolio engine from a validated configuration.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	commission, err := execution.NewCommissionCalculator(cfg.CommissionRate)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		config:     cfg,
		logger:     logrus.New(),
		commission: commission,
		data:       make(map[string][]models.Bar),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// LoadData registers a symbol's bar series. Loading the same symbol twice
// replaces the series. Bars must carry parseable dates in ascending
// order.
func (e *Engine) LoadData(symbol string, bars []models.Bar) error {
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", models.ErrInvalidConfig)
	}
	if len(bars) == 0 {
		return fmt.Errorf("load %s: %w", symbol, models.ErrNoData)
	}
	var prev time.Time
	for i, bar := range bars {
		ts, err := bar.Time()
		if err != nil {
			return fmt.Errorf("load %s bar %d: %w", symbol, i, err)
		}
		if i > 0 && !ts.After(prev) {
			return fmt.Errorf("load %s bar %d: dates must be strictly ascending", symbol, i)
		}
		prev = ts
	}

	if _, exists := e.data[symbol]; !exists {
		e.symbols = append(e.symbols, symbol)
	}
	e.data[symbol] = bars
	return nil
}

// symbolSeries holds the precomputed per-symbol replay inputs.
type symbolSeries struct {
	bars    []models.Bar
	barAt   map[string]int // bar index by date
	entries []bool
	exits   []bool
}

// Run replays the loaded symbols over their union date axis and returns
// the aggregate result.
func (e *Engine) Run() (*Result, error) {
	if len(e.symbols) == 0 {
		return nil, fmt.Errorf("portfolio: %w: no symbols loaded", models.ErrNoData)
	}

	series := make(map[string]*symbolSeries, len(e.symbols))
	for _, sym := range e.symbols {
		s, err := e.buildSeries(sym)
		if err != nil {
			return nil, err
		}
		series[sym] = s
	}

	axis, err := unionDates(e.data, e.symbols)
	if err != nil {
		return nil, err
	}

	correlations := NewCorrelationMatrix(e.data, e.symbols)

	state := &replayState{
		cash:      e.config.InitialCapital,
		positions: make(map[string]*models.Position),
		lastPrice: make(map[string]float64),
		entryDay:  make(map[string]int),
	}

	var prevDate time.Time
	for day, point := range axis {
		for _, sym := range e.symbols {
			if idx, ok := series[sym].barAt[point.date]; ok {
				state.lastPrice[sym] = series[sym].bars[idx].Close
			}
		}

		e.processExits(state, series, point.date, day)

		equity := state.equity()
		e.processEntries(state, series, correlations, point.date, day, equity)

		if event, ok := e.maybeRebalance(state, prevDate, point.ts, point.date); ok {
			state.events = append(state.events, event)
		}

		state.curve = append(state.curve, state.equity())
		prevDate = point.ts

		if e.progress != nil {
			e.progress(day+1, len(axis))
		}
	}

	lastDate := axis[len(axis)-1].date
	e.closeAll(state, lastDate, len(axis)-1)
	state.curve[len(state.curve)-1] = state.equity()

	curve := state.curve
	result := &Result{
		Symbols:         append([]string(nil), e.symbols...),
		Trades:          state.trades,
		EquityCurve:     curve,
		DrawdownCurve:   curve.DrawdownCurve(),
		Metrics:         backtest.CalculateMetrics(state.trades, curve, e.config.InitialCapital),
		RebalanceEvents: state.events,
		StartDate:       axis[0].date,
		EndDate:         lastDate,
		InitialCapital:  e.config.InitialCapital,
		FinalCapital:    curve[len(curve)-1],
		correlations:    correlations,
	}

	e.logger.WithFields(logrus.Fields{
		"symbols":    len(e.symbols),
		"days":       len(axis),
		"trades":     len(state.trades),
		"rebalances": len(state.events),
		"final":      result.FinalCapital,
	}).Info("Portfolio replay complete")

	return result, nil
}

// buildSeries precomputes entry/exit flags for one symbol: entry when the
// fast SMA crosses above the slow one with RSI still under the overbought
// level, exit on the reverse crossover.
func (e *Engine) buildSeries(symbol string) (*symbolSeries, error) {
	bars := e.data[symbol]
	prices := make([]float64, len(bars))
	barAt := make(map[string]int, len(bars))
	for i, b := range bars {
		prices[i] = b.Close
		barAt[b.Date] = i
	}

	fast, err := indicator.SMA(prices, e.config.FastPeriod)
	if err != nil {
		return nil, fmt.Errorf("portfolio %s: %w", symbol, err)
	}
	slow, err := indicator.SMA(prices, e.config.SlowPeriod)
	if err != nil {
		return nil, fmt.Errorf("portfolio %s: %w", symbol, err)
	}
	rsi, err := indicator.RSI(prices, e.config.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("portfolio %s: %w", symbol, err)
	}

	s := &symbolSeries{
		bars:    bars,
		barAt:   barAt,
		entries: make([]bool, len(bars)),
		exits:   make([]bool, len(bars)),
	}
	for i := range bars {
		if indicator.CrossedAbove(fast, slow, i) && !math.IsNaN(rsi[i]) && rsi[i] < e.config.RSIOverbought {
			s.entries[i] = true
		}
		if indicator.CrossedBelow(fast, slow, i) {
			s.exits[i] = true
		}
	}
	return s, nil
}

type replayState struct {
	cash      float64
	positions map[string]*models.Position
	lastPrice map[string]float64
	entryDay  map[string]int
	trades    []models.Trade
	curve     backtest.EquityCurve
	events    []RebalanceEvent
}

func (s *replayState) equity() float64 {
	equity := s.cash
	for sym, pos := range s.positions {
		equity += pos.Quantity * s.lastPrice[sym]
	}
	return equity
}

// weights returns each open position's share of total equity.
func (s *replayState) weights() map[string]float64 {
	equity := s.equity()
	out := make(map[string]float64, len(s.positions))
	if equity <= 0 {
		return out
	}
	for sym, pos := range s.positions {
		out[sym] = pos.Quantity * s.lastPrice[sym] / equity
	}
	return out
}

func (e *Engine) processExits(state *replayState, series map[string]*symbolSeries, date string, day int) {
	for _, sym := range e.symbols {
		_, held := state.positions[sym]
		if !held {
			continue
		}
		idx, hasBar := series[sym].barAt[date]
		if !hasBar || !series[sym].exits[idx] {
			continue
		}
		e.closePosition(state, sym, series[sym].bars[idx].Close, date, day, models.ExitSignal)
	}
}

func (e *Engine) processEntries(state *replayState, series map[string]*symbolSeries, correlations *CorrelationMatrix, date string, day int, equity float64) {
	for _, sym := range e.symbols {
		if _, held := state.positions[sym]; held {
			continue
		}
		if len(state.positions) >= e.config.MaxOpenPositions {
			return
		}
		idx, hasBar := series[sym].barAt[date]
		if !hasBar || !series[sym].entries[idx] {
			continue
		}
		if e.correlationBlocked(state, correlations, sym) {
			e.logger.WithFields(logrus.Fields{
				"symbol": sym,
				"date":   date,
			}).Debug("Entry blocked by correlation gate")
			continue
		}

		price := series[sym].bars[idx].Close
		if price <= 0 {
			continue
		}
		quantity := math.Floor(equity * e.config.targetWeight() / price)
		for quantity >= 1 {
			cost := quantity*price + e.commission.Calculate(quantity*price)
			if cost <= state.cash {
				break
			}
			quantity--
		}
		if quantity < 1 {
			continue
		}

		fee := e.commission.Calculate(quantity * price)
		state.cash -= quantity*price + fee
		state.positions[sym] = &models.Position{
			Symbol:       sym,
			Side:         models.SideLong,
			EntryPrice:   price,
			Quantity:     quantity,
			EntryDate:    date,
			EntryIndex:   idx,
			StrategyName: portfolioStrategyName,
			EntryFees:    fee,
		}
		state.entryDay[sym] = day
	}
}

// correlationBlocked reports whether the candidate's return correlation
// with any open holding breaches the gate.
func (e *Engine) correlationBlocked(state *replayState, correlations *CorrelationMatrix, symbol string) bool {
	if e.config.CorrelationThreshold >= 1 {
		return false
	}
	for held := range state.positions {
		if math.Abs(correlations.Get(symbol, held)) >= e.config.CorrelationThreshold {
			return true
		}
	}
	return false
}

func (e *Engine) maybeRebalance(state *replayState, prevDate, curDate time.Time, date string) (RebalanceEvent, bool) {
	if len(state.positions) == 0 {
		return RebalanceEvent{}, false
	}

	var reason RebalanceReason
	switch {
	case scheduleDue(e.config.RebalanceFrequency, prevDate, curDate):
		reason = RebalanceScheduled
	case driftExceeded(state.weights(), e.config.targetWeight(), e.config.RebalanceThreshold):
		reason = RebalanceThreshold
	default:
		return RebalanceEvent{}, false
	}

	before := state.weights()
	turnover := e.rebalance(state)
	after := state.weights()

	event := RebalanceEvent{
		Date:          date,
		Reason:        reason,
		BeforeWeights: before,
		AfterWeights:  after,
		Turnover:      turnover,
	}
	e.logger.WithFields(logrus.Fields{
		"date":     date,
		"reason":   reason,
		"turnover": turnover,
	}).Debug("Portfolio rebalanced")
	return event, true
}

// rebalance pulls every open position back to the target weight, trading
// at the last known price. Returns the traded notional.
func (e *Engine) rebalance(state *replayState) float64 {
	equity := state.equity()
	target := e.config.targetWeight()
	turnover := 0.0

	for _, sym := range e.symbols {
		pos, held := state.positions[sym]
		if !held {
			continue
		}
		price := state.lastPrice[sym]
		if price <= 0 {
			continue
		}
		targetQty := math.Floor(equity * target / price)
		if targetQty < 1 {
			continue
		}
		delta := targetQty - pos.Quantity
		if delta == 0 {
			continue
		}
		notional := math.Abs(delta) * price
		fee := e.commission.Calculate(notional)
		if delta > 0 && delta*price+fee > state.cash {
			// Scale the buy down to what the cash ledger covers.
			delta = math.Floor((state.cash - fee) / price)
			if delta < 1 {
				continue
			}
			notional = delta * price
			fee = e.commission.Calculate(notional)
		}
		state.cash -= delta*price + fee
		pos.Quantity += delta
		turnover += notional
	}
	return turnover
}

func (e *Engine) closePosition(state *replayState, symbol string, price float64, date string, day int, reason models.ExitReason) {
	pos := state.positions[symbol]
	exitFee := e.commission.Calculate(pos.Quantity * price)
	state.cash += pos.Quantity*price - exitFee

	pnl := (price-pos.EntryPrice)*pos.Quantity - pos.EntryFees - exitFee
	pnlPercent := 0.0
	if notional := pos.EntryPrice * pos.Quantity; notional > 0 {
		pnlPercent = pnl / notional * 100
	}

	state.trades = append(state.trades, models.Trade{
		ID:             uuid.New(),
		Symbol:         symbol,
		Side:           pos.Side,
		EntryPrice:     pos.EntryPrice,
		ExitPrice:      price,
		Quantity:       pos.Quantity,
		EntryDate:      pos.EntryDate,
		ExitDate:       date,
		PnL:            pnl,
		PnLPercent:     pnlPercent,
		Fees:           pos.EntryFees + exitFee,
		ExitReason:     reason,
		StrategyName:   pos.StrategyName,
		HoldingPeriods: day - state.entryDay[symbol],
	})
	delete(state.positions, symbol)
	delete(state.entryDay, symbol)
}

func (e *Engine) closeAll(state *replayState, date string, day int) {
	for _, sym := range e.symbols {
		if _, held := state.positions[sym]; held {
			e.closePosition(state, sym, state.lastPrice[sym], date, day, models.ExitEndOfData)
		}
	}
}

// axisPoint is one simulated day on the union calendar.
type axisPoint struct {
	date string
	ts   time.Time
}

// unionDates merges every symbol's bar dates into one ascending axis.
func unionDates(data map[string][]models.Bar, symbols []string) ([]axisPoint, error) {
	seen := make(map[string]time.Time)
	for _, sym := range symbols {
		for _, bar := range data[sym] {
			if _, ok := seen[bar.Date]; ok {
				continue
			}
			ts, err := bar.Time()
			if err != nil {
				return nil, fmt.Errorf("union axis %s: %w", sym, err)
			}
			seen[bar.Date] = ts
		}
	}

	axis := make([]axisPoint, 0, len(seen))
	for date, ts := range seen {
		axis = append(axis, axisPoint{date: date, ts: ts})
	}
	sort.Slice(axis, func(i, j int) bool { return axis[i].ts.Before(axis[j].ts) })
	return axis, nil
}
