package execution

import (
	"fmt"
	"math"

	"github.com/yourusername/tradesim/internal/models"
)

// FillModel selects how the immediate fill rate decays once an order
// exceeds the liquidity threshold.
type FillModel string

const (
	FillLinear      FillModel = "linear"
	FillExponential FillModel = "exponential"
	FillCustom      FillModel = "custom"
)

// UnfilledStrategy controls what happens to the unfilled remainder.
type UnfilledStrategy string

const (
	UnfilledQueue  UnfilledStrategy = "queue"
	UnfilledCancel UnfilledStrategy = "cancel"
	UnfilledHold   UnfilledStrategy = "hold"
)

// FillFunc is a caller-supplied fill-rate curve. It receives the
// order-to-bar-volume ratio and the liquidity threshold and returns an
// unclamped fill rate.
type FillFunc func(ratio, threshold float64) float64

const fillImpactCap = 0.05

// PartialFillConfig configures the liquidity-constrained fill simulator.
type PartialFillConfig struct {
	LiquidityThreshold   float64
	FillModel            FillModel
	CustomFill           FillFunc
	MinImmediateFillRate float64
	MaxImmediateFillRate float64
	ExponentialDecay     float64
	UnfilledStrategy     UnfilledStrategy
	MaxQueueBars         int
}

func (c *PartialFillConfig) applyDefaults() {
	if c.LiquidityThreshold <= 0 {
		c.LiquidityThreshold = 0.01
	}
	if c.FillModel == "" {
		c.FillModel = FillExponential
	}
	if c.MinImmediateFillRate <= 0 {
		c.MinImmediateFillRate = 0.1
	}
	if c.MaxImmediateFillRate <= 0 {
		c.MaxImmediateFillRate = 1.0
	}
	if c.ExponentialDecay <= 0 {
		c.ExponentialDecay = 2.0
	}
	if c.UnfilledStrategy == "" {
		c.UnfilledStrategy = UnfilledQueue
	}
	if c.MaxQueueBars <= 0 {
		c.MaxQueueBars = 3
	}
}

// Validate validates partial fill configuration
func (c PartialFillConfig) Validate() error {
	switch c.FillModel {
	case "", FillLinear, FillExponential:
	case FillCustom:
		if c.CustomFill == nil {
			return fmt.Errorf("%w: custom fill model requires a fill function", models.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown fill model %q", models.ErrInvalidConfig, c.FillModel)
	}
	switch c.UnfilledStrategy {
	case "", UnfilledQueue, UnfilledCancel, UnfilledHold:
	default:
		return fmt.Errorf("%w: unknown unfilled strategy %q", models.ErrInvalidConfig, c.UnfilledStrategy)
	}
	if c.MinImmediateFillRate > c.MaxImmediateFillRate && c.MaxImmediateFillRate > 0 {
		return fmt.Errorf("%w: min fill rate exceeds max fill rate", models.ErrInvalidConfig)
	}
	return nil
}

// FillResult is the outcome of submitting an order against one bar.
// IntendedPrice is the price the order asked for; FillPrice includes the
// impact adjustment.
type FillResult struct {
	RequestedQty  float64 `json:"requested_qty"`
	FilledQty     float64 `json:"filled_qty"`
	RemainingQty  float64 `json:"remaining_qty"`
	IntendedPrice float64 `json:"intended_price"`
	FillPrice     float64 `json:"fill_price"`
	FillRate      float64 `json:"fill_rate"`
	Impact        float64 `json:"impact"`
	Queued        bool    `json:"queued"`
	Cancelled     bool    `json:"cancelled"`
	BarIndex      int     `json:"bar_index"`
}

// QueuedOrder is an unfilled remainder carried to later bars. Age counts
// the bars it has waited; it is cancelled once age reaches MaxQueueBars.
type QueuedOrder struct {
	Price        float64
	RemainingQty float64
	Side         OrderSide
	OriginIndex  int
	Age          int
}

// PartialFillSimulator models liquidity-constrained fills with multi-bar
// carryover. It is owned by one engine instance and is not safe for
// concurrent use.
type PartialFillSimulator struct {
	config PartialFillConfig
	queue  []*QueuedOrder
}

// NewPartialFillSimulator creates a partial fill simulator.
func NewPartialFillSimulator(cfg PartialFillConfig) (*PartialFillSimulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &PartialFillSimulator{config: cfg}, nil
}

// SimulateFill executes an order against a bar's volume. Orders below the
// liquidity threshold fill completely at the intended price; larger orders
// fill partially with square-root market impact on the filled portion.
func (s *PartialFillSimulator) SimulateFill(price, quantity float64, side OrderSide, bar models.Bar, barIndex int) FillResult {
	result := s.fillAgainstBar(price, quantity, side, bar, barIndex)
	if result.RemainingQty <= 0 {
		return result
	}

	switch s.config.UnfilledStrategy {
	case UnfilledCancel:
		result.Cancelled = true
	case UnfilledQueue:
		result.Queued = true
		s.queue = append(s.queue, &QueuedOrder{
			Price:        price,
			RemainingQty: result.RemainingQty,
			Side:         side,
			OriginIndex:  barIndex,
		})
	}
	return result
}

func (s *PartialFillSimulator) fillAgainstBar(price, quantity float64, side OrderSide, bar models.Bar, barIndex int) FillResult {
	result := FillResult{RequestedQty: quantity, IntendedPrice: price, FillPrice: price, BarIndex: barIndex}
	if quantity <= 0 {
		return result
	}

	ratio := 1.0
	if bar.Volume > 0 {
		ratio = quantity / bar.Volume
	}
	threshold := s.config.LiquidityThreshold

	if ratio <= threshold {
		result.FilledQty = quantity
		result.FillRate = 1.0
		return result
	}

	rate := s.immediateFillRate(ratio)
	filled := math.Floor(quantity * rate)
	if filled <= 0 {
		result.RemainingQty = quantity
		return result
	}

	excess := (ratio - threshold) / threshold
	impact := math.Min(fillImpactCap, sqrtImpactCoeff*math.Sqrt(excess))
	fillPrice := price
	if side == Buy {
		fillPrice = price * (1 + impact)
	} else {
		fillPrice = price * (1 - impact)
	}

	result.FilledQty = filled
	result.RemainingQty = quantity - filled
	result.FillRate = rate
	result.Impact = impact
	result.FillPrice = fillPrice
	return result
}

func (s *PartialFillSimulator) immediateFillRate(ratio float64) float64 {
	threshold := s.config.LiquidityThreshold
	var rate float64
	switch s.config.FillModel {
	case FillLinear:
		rate = threshold / ratio
	case FillCustom:
		rate = s.config.CustomFill(ratio, threshold)
	default:
		rate = math.Exp(-s.config.ExponentialDecay * (ratio - threshold) / threshold)
	}
	return clamp(rate, s.config.MinImmediateFillRate, s.config.MaxImmediateFillRate)
}

// ProcessQueuedOrders retries every queued order against a new bar, ages
// them, and drops orders that filled completely or expired. It is called
// once per bar by the engine.
func (s *PartialFillSimulator) ProcessQueuedOrders(bar models.Bar, barIndex int) []FillResult {
	if len(s.queue) == 0 {
		return nil
	}

	var results []FillResult
	var remaining []*QueuedOrder
	for _, order := range s.queue {
		order.Age++
		result := s.fillAgainstBar(order.Price, order.RemainingQty, order.Side, bar, barIndex)
		order.RemainingQty = result.RemainingQty

		switch {
		case order.RemainingQty <= 0:
			// fully filled
		case order.Age >= s.config.MaxQueueBars:
			result.Cancelled = true
		default:
			result.Queued = true
			remaining = append(remaining, order)
		}
		results = append(results, result)
	}
	s.queue = remaining
	return results
}

// QueueDepth returns the number of orders still waiting.
func (s *PartialFillSimulator) QueueDepth() int {
	return len(s.queue)
}

// Reset clears the carryover queue.
func (s *PartialFillSimulator) Reset() {
	s.queue = nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
