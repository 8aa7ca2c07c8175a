package backtest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/yourusername/tradesim/internal/models"
)

// EquityCurve is the ordered sequence of capital values, one entry per bar
// processed, with the initial capital at index 0. Only realized PnL moves
// the curve; open positions are not marked into it.
type EquityCurve []float64

// Returns calculates per-bar returns from the curve.
func (e EquityCurve) Returns() []float64 {
	if len(e) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(e)-1)
	for i := 1; i < len(e); i++ {
		prev := e[i-1]
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (e[i]-prev)/prev)
	}
	return returns
}

// DrawdownCurve returns the percentage decline from the running peak at
// every point. Values are always >= 0.
func (e EquityCurve) DrawdownCurve() []float64 {
	curve := make([]float64, len(e))
	peak := 0.0
	for i, v := range e {
		if v > peak {
			peak = v
		}
		if peak > 0 && v < peak {
			curve[i] = (peak - v) / peak * 100
		}
	}
	return curve
}

// MaxDrawdown returns the deepest peak-to-trough decline in percent and
// its duration: the longest run of bars spent below a prior peak.
func (e EquityCurve) MaxDrawdown() (float64, int) {
	maxDD := 0.0
	peak := 0.0
	duration := 0
	current := 0
	for _, v := range e {
		if v >= peak {
			peak = v
			current = 0
		} else {
			current++
			if current > duration {
				duration = current
			}
			if peak > 0 {
				dd := (peak - v) / peak * 100
				if dd > maxDD {
					maxDD = dd
				}
			}
		}
	}
	return maxDD, duration
}

// Volatility calculates the standard deviation of per-bar returns.
func (e EquityCurve) Volatility() float64 {
	return stddev(e.Returns())
}

// DownsideDeviation is the RMS of negative per-bar returns over all bars.
func (e EquityCurve) DownsideDeviation() float64 {
	returns := e.Returns()
	if len(returns) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range returns {
		if r < 0 {
			sum += r * r
		}
	}
	return math.Sqrt(sum / float64(len(returns)))
}

// UlcerIndex is the RMS of the percentage drawdown from the running peak.
func (e EquityCurve) UlcerIndex() float64 {
	dd := e.DrawdownCurve()
	if len(dd) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range dd {
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(dd)))
}

// ToCSV exports the curve with its drawdown series.
func (e EquityCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("index,equity,drawdown_pct\n")
	dd := e.DrawdownCurve()
	for i, v := range e {
		buf.WriteString(strconv.Itoa(i))
		buf.WriteString(",")
		buf.WriteString(strconv.FormatFloat(v, 'f', 6, 64))
		buf.WriteString(",")
		buf.WriteString(strconv.FormatFloat(dd[i], 'f', 6, 64))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports the curve to a JSON array.
func (e EquityCurve) ToJSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}

// ReconstructEquityCurve rebuilds an equity curve strictly from a trade
// sequence by applying each realized PnL to the initial capital. The Monte
// Carlo simulator uses it on shuffled trades; it also round-trips the
// engine's own recorded curve modulo bars where nothing closed.
func ReconstructEquityCurve(trades []models.Trade, initialCapital float64) EquityCurve {
	curve := make(EquityCurve, 0, len(trades)+1)
	curve = append(curve, initialCapital)
	equity := initialCapital
	for _, trade := range trades {
		equity += trade.PnL
		curve = append(curve, equity)
	}
	return curve
}
