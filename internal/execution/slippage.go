// Package execution provides the cost models used by the simulation engines:
// slippage, commission, partial fills and execution latency. Each model is a
// pure transformation from market context and an intended order to an
// adjusted fill; none of them hold cross-run state except the partial fill
// queue, which is owned by a single engine instance.
package execution

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/yourusername/tradesim/internal/models"
)

// OrderSide is the direction of an order being executed.
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// ImpactModel selects the order-size impact formula.
type ImpactModel string

const (
	ImpactLinear        ImpactModel = "linear"
	ImpactSquareRoot    ImpactModel = "square_root"
	ImpactAlmgrenChriss ImpactModel = "almgren_chriss"
)

// Trading session windows evaluated in the reference exchange timezone.
// The policy is wider spreads near the open and close and during the
// low-liquidity lunch window.
const (
	openingHourSlippage = 0.0005
	closingHalfSlippage = 0.0003
	lunchWindowSlippage = 0.0002
)

// Volatility tier add-ons keyed on intraday range ratio.
const (
	volTier2Pct = 0.0010
	volTier3Pct = 0.0020
	volTier5Pct = 0.0040
)

// Impact model coefficients.
const (
	linearImpactCoeff  = 0.1
	linearImpactCap    = 0.001
	sqrtImpactCoeff    = 0.01
	acTemporaryEta     = 0.008
	acPermanentGamma   = 0.05
	impactCap          = 0.01
	panicRangeRatio    = 0.05
)

// JST: the reference session clock. Fixed offset, no DST.
var referenceZone = time.FixedZone("JST", 9*60*60)

// SlippageConfig configures the slippage model. All rates are fractional
// (0.001 = 10 basis points).
type SlippageConfig struct {
	BaseRate       float64
	SpreadRate     float64
	ImpactModel    ImpactModel
	AvgDailyVolume float64
	PanicSlippage  float64
	JitterRate     float64
}

// Validate validates slippage configuration
func (c SlippageConfig) Validate() error {
	if c.BaseRate < 0 || c.SpreadRate < 0 || c.PanicSlippage < 0 || c.JitterRate < 0 {
		return fmt.Errorf("%w: slippage rates cannot be negative", models.ErrInvalidConfig)
	}
	switch c.ImpactModel {
	case "", ImpactLinear, ImpactSquareRoot, ImpactAlmgrenChriss:
	default:
		return fmt.Errorf("%w: unknown impact model %q", models.ErrInvalidConfig, c.ImpactModel)
	}
	return nil
}

// SlippageBreakdown itemizes the rate components that made up a fill.
type SlippageBreakdown struct {
	Base       float64 `json:"base"`
	TimeOfDay  float64 `json:"time_of_day"`
	Volatility float64 `json:"volatility"`
	Impact     float64 `json:"impact"`
	Panic      float64 `json:"panic"`
	Jitter     float64 `json:"jitter"`
}

// SlippageResult is the outcome of one slippage calculation.
type SlippageResult struct {
	Rate          float64           `json:"rate"`
	AdjustedPrice float64           `json:"adjusted_price"`
	Breakdown     SlippageBreakdown `json:"breakdown"`
}

// SlippageModel models execution slippage from spread, session time,
// volatility and order size. A nil rng disables jitter entirely, which is
// what deterministic tests rely on. A configuration with every cost at
// zero is a frictionless run: the session and volatility add-ons only
// engage when some cost is configured.
type SlippageModel struct {
	config SlippageConfig
	rng    *rand.Rand
	active bool
}

// NewSlippageModel creates a slippage model. rng may be nil.
func NewSlippageModel(cfg SlippageConfig, rng *rand.Rand) (*SlippageModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ImpactModel == "" {
		cfg.ImpactModel = ImpactLinear
	}
	active := cfg.BaseRate > 0 || cfg.SpreadRate > 0 || cfg.PanicSlippage > 0 ||
		cfg.JitterRate > 0 || cfg.AvgDailyVolume > 0
	return &SlippageModel{config: cfg, rng: rng, active: active}, nil
}

// Calculate computes the total slippage rate for an order and the adjusted
// fill price. All components are summed before a single multiplicative
// adjustment: buys pay price*(1+rate), sells receive price/(1+rate).
func (m *SlippageModel) Calculate(price float64, side OrderSide, quantity float64, bar *models.Bar) SlippageResult {
	if !m.active {
		return SlippageResult{AdjustedPrice: price}
	}
	breakdown := SlippageBreakdown{
		Base: m.config.BaseRate + m.config.SpreadRate/2.0,
	}

	if bar != nil {
		breakdown.TimeOfDay = m.timeOfDayRate(*bar)
		breakdown.Volatility = volatilityRate(bar.RangeRatio())
		if bar.RangeRatio() > panicRangeRatio {
			breakdown.Panic = m.config.PanicSlippage
		}
	}
	breakdown.Impact = m.impactRate(quantity)
	if m.rng != nil && m.config.JitterRate > 0 {
		breakdown.Jitter = m.rng.Float64() * m.config.JitterRate
	}

	rate := breakdown.Base + breakdown.TimeOfDay + breakdown.Volatility + breakdown.Impact + breakdown.Panic + breakdown.Jitter

	adjusted := price
	if side == Buy {
		adjusted = price * (1 + rate)
	} else {
		adjusted = price / (1 + rate)
	}

	return SlippageResult{Rate: rate, AdjustedPrice: adjusted, Breakdown: breakdown}
}

func (m *SlippageModel) timeOfDayRate(bar models.Bar) float64 {
	if !bar.Intraday() {
		return 0
	}
	t, err := bar.Time()
	if err != nil {
		return 0
	}
	local := t.In(referenceZone)
	minutes := local.Hour()*60 + local.Minute()
	switch {
	case minutes >= 9*60 && minutes < 10*60:
		return openingHourSlippage
	case minutes >= 14*60+30 && minutes < 15*60:
		return closingHalfSlippage
	case minutes >= 11*60+30 && minutes < 12*60+30:
		return lunchWindowSlippage
	}
	return 0
}

func volatilityRate(rangeRatio float64) float64 {
	switch {
	case rangeRatio > 0.05:
		return volTier5Pct
	case rangeRatio > 0.03:
		return volTier3Pct
	case rangeRatio > 0.02:
		return volTier2Pct
	}
	return 0
}

func (m *SlippageModel) impactRate(quantity float64) float64 {
	if m.config.AvgDailyVolume <= 0 || quantity <= 0 {
		return 0
	}
	ratio := quantity / m.config.AvgDailyVolume

	var impact float64
	switch m.config.ImpactModel {
	case ImpactSquareRoot:
		impact = sqrtImpactCoeff * math.Sqrt(ratio)
	case ImpactAlmgrenChriss:
		impact = acTemporaryEta*math.Sqrt(ratio) + acPermanentGamma*ratio
	default:
		impact = math.Min(linearImpactCap, linearImpactCoeff*ratio)
	}
	return math.Min(impactCap, impact)
}
