package backtest

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/yourusername/tradesim/internal/models"
)

const (
	annualRiskFreeRate = 0.02
	periodsPerYear     = 252
)

// PerformanceMetrics is a flat value object derived from trades and the
// equity curve. Percent-suffixed semantics: TotalReturn, AnnualizedReturn,
// CAGR, Volatility, MaxDrawdown, VaR and WinRate are expressed in percent;
// the ratios are unitless; PnL aggregates are in capital units. All
// zero-denominator cases resolve to 0 rather than NaN, with one documented
// exception: ProfitFactor equals GrossProfit when GrossLoss is 0.
type PerformanceMetrics struct {
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	CAGR             float64 `json:"cagr"`
	Volatility       float64 `json:"volatility"`

	MaxDrawdown         float64 `json:"max_drawdown"`
	MaxDrawdownDuration int     `json:"max_drawdown_duration"`
	ValueAtRisk95       float64 `json:"var_95"`
	ValueAtRisk99       float64 `json:"var_99"`

	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	CalmarRatio  float64 `json:"calmar_ratio"`
	OmegaRatio   float64 `json:"omega_ratio"`

	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	ProfitFactor  float64 `json:"profit_factor"`
	AverageWin    float64 `json:"average_win"`
	AverageLoss   float64 `json:"average_loss"`
	LargestWin    float64 `json:"largest_win"`
	LargestLoss   float64 `json:"largest_loss"`
	AverageTrade  float64 `json:"average_trade"`
	Expectancy    float64 `json:"expectancy"`
	PayoffRatio   float64 `json:"payoff_ratio"`

	MaxConsecutiveWins   int     `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	AverageHoldingPeriod float64 `json:"average_holding_period"`

	GrossProfit float64 `json:"gross_profit"`
	GrossLoss   float64 `json:"gross_loss"`
	NetProfit   float64 `json:"net_profit"`

	Skewness       float64 `json:"skewness"`
	Kurtosis       float64 `json:"kurtosis"`
	UlcerIndex     float64 `json:"ulcer_index"`
	RecoveryFactor float64 `json:"recovery_factor"`
	TradingPeriods int     `json:"trading_periods"`
}

// ToJSON exports metrics to JSON.
func (m PerformanceMetrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

// CalculateMetrics derives the full metrics bundle from a trade list, the
// equity curve and the initial capital. It is a pure function; the result
// is never mutated after computation.
func CalculateMetrics(trades []models.Trade, curve EquityCurve, initialCapital float64) PerformanceMetrics {
	metrics := PerformanceMetrics{}
	if len(curve) == 0 || initialCapital <= 0 {
		return metrics
	}

	final := curve[len(curve)-1]
	periods := len(curve) - 1
	metrics.TradingPeriods = periods

	metrics.TotalReturn = (final - initialCapital) / initialCapital * 100
	metrics.AnnualizedReturn = calculateAnnualizedReturn(metrics.TotalReturn/100, periods) * 100
	metrics.CAGR = metrics.AnnualizedReturn

	returns := curve.Returns()
	metrics.Volatility = stddev(returns) * math.Sqrt(periodsPerYear) * 100
	metrics.MaxDrawdown, metrics.MaxDrawdownDuration = curve.MaxDrawdown()
	metrics.ValueAtRisk95 = calculateVaR(returns, 0.95)
	metrics.ValueAtRisk99 = calculateVaR(returns, 0.99)

	metrics.SharpeRatio = calculateSharpeRatio(returns)
	metrics.SortinoRatio = calculateSortinoRatio(returns, curve.DownsideDeviation())
	if metrics.MaxDrawdown > 0 {
		metrics.CalmarRatio = metrics.AnnualizedReturn / metrics.MaxDrawdown
	}
	metrics.OmegaRatio = calculateOmegaRatio(returns)

	metrics.Skewness = calculateSkewness(returns)
	metrics.Kurtosis = calculateKurtosis(returns)
	metrics.UlcerIndex = curve.UlcerIndex()

	fillTradeStats(&metrics, trades)

	if metrics.MaxDrawdown > 0 {
		metrics.RecoveryFactor = metrics.TotalReturn / metrics.MaxDrawdown
	}

	return metrics
}

func fillTradeStats(metrics *PerformanceMetrics, trades []models.Trade) {
	metrics.TotalTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	winSum, lossSum := 0.0, 0.0
	holdingSum := 0
	winStreak, lossStreak := 0, 0
	for _, trade := range trades {
		holdingSum += trade.HoldingPeriods
		switch {
		case trade.PnL > 0:
			metrics.WinningTrades++
			winSum += trade.PnL
			if trade.PnL > metrics.LargestWin {
				metrics.LargestWin = trade.PnL
			}
			winStreak++
			lossStreak = 0
		case trade.PnL < 0:
			metrics.LosingTrades++
			lossSum += trade.PnL
			if trade.PnL < metrics.LargestLoss {
				metrics.LargestLoss = trade.PnL
			}
			lossStreak++
			winStreak = 0
		default:
			winStreak = 0
			lossStreak = 0
		}
		if winStreak > metrics.MaxConsecutiveWins {
			metrics.MaxConsecutiveWins = winStreak
		}
		if lossStreak > metrics.MaxConsecutiveLosses {
			metrics.MaxConsecutiveLosses = lossStreak
		}
	}

	metrics.GrossProfit = winSum
	metrics.GrossLoss = math.Abs(lossSum)
	metrics.NetProfit = winSum + lossSum
	metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades) * 100
	metrics.AverageTrade = metrics.NetProfit / float64(metrics.TotalTrades)
	metrics.AverageHoldingPeriod = float64(holdingSum) / float64(metrics.TotalTrades)

	if metrics.WinningTrades > 0 {
		metrics.AverageWin = winSum / float64(metrics.WinningTrades)
	}
	if metrics.LosingTrades > 0 {
		metrics.AverageLoss = lossSum / float64(metrics.LosingTrades)
	}

	// Documented exception: with no losing trades the profit factor is the
	// gross profit itself, not infinity.
	if metrics.GrossLoss == 0 {
		metrics.ProfitFactor = metrics.GrossProfit
	} else {
		metrics.ProfitFactor = metrics.GrossProfit / metrics.GrossLoss
	}

	winRate := float64(metrics.WinningTrades) / float64(metrics.TotalTrades)
	lossRate := float64(metrics.LosingTrades) / float64(metrics.TotalTrades)
	metrics.Expectancy = winRate*metrics.AverageWin - lossRate*math.Abs(metrics.AverageLoss)

	if metrics.AverageLoss != 0 {
		metrics.PayoffRatio = metrics.AverageWin / math.Abs(metrics.AverageLoss)
	}
}

func calculateAnnualizedReturn(totalReturn float64, periods int) float64 {
	if periods <= 0 || totalReturn <= -1 {
		return 0
	}
	return math.Pow(1+totalReturn, 365.0/float64(periods)) - 1
}

func calculateSharpeRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	std := stddev(returns)
	if std == 0 {
		return 0
	}
	excess := average(returns) - annualRiskFreeRate/periodsPerYear
	return excess / std * math.Sqrt(periodsPerYear)
}

func calculateSortinoRatio(returns []float64, downside float64) float64 {
	if len(returns) == 0 || downside == 0 {
		return 0
	}
	excess := average(returns) - annualRiskFreeRate/periodsPerYear
	return excess / downside * math.Sqrt(periodsPerYear)
}

func calculateOmegaRatio(returns []float64) float64 {
	gains, losses := 0.0, 0.0
	for _, r := range returns {
		if r > 0 {
			gains += r
		} else {
			losses += -r
		}
	}
	if losses == 0 {
		return 0
	}
	return gains / losses
}

// calculateVaR returns the empirical value-at-risk of the per-bar return
// series at the given confidence level, as a positive percentage.
func calculateVaR(returns []float64, level float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := append([]float64{}, returns...)
	sort.Float64s(sorted)
	index := int(math.Floor((1 - level) * float64(len(sorted))))
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return math.Abs(sorted[index]) * 100
}

func calculateSkewness(returns []float64) float64 {
	n := float64(len(returns))
	if n < 2 {
		return 0
	}
	mean := average(returns)
	std := stddev(returns)
	if std == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range returns {
		sum += math.Pow((r-mean)/std, 3)
	}
	return sum / n
}

// calculateKurtosis returns excess kurtosis.
func calculateKurtosis(returns []float64) float64 {
	n := float64(len(returns))
	if n < 2 {
		return 0
	}
	mean := average(returns)
	std := stddev(returns)
	if std == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range returns {
		sum += math.Pow((r-mean)/std, 4)
	}
	return sum/n - 3
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
