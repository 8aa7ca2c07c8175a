// Package indicator provides technical indicator series used by the
// strategy implementations and the portfolio entry policy. Each function
// returns a slice aligned with the input; indices inside the warm-up
// period hold math.NaN().
package indicator

import (
	"fmt"
	"math"

	"github.com/yourusername/tradesim/internal/models"
)

// SMA computes a simple moving average over the given period.
func SMA(values []float64, period int) ([]float64, error) {
	if err := validate(values, period); err != nil {
		return nil, fmt.Errorf("sma: %w", err)
	}

	result := nanSeries(len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			result[i] = sum / float64(period)
		}
	}
	return result, nil
}

// EMA computes an exponential moving average with alpha = 2/(period+1),
// seeded from the first value. Warm-up indices before the period are NaN.
func EMA(values []float64, period int) ([]float64, error) {
	if err := validate(values, period); err != nil {
		return nil, fmt.Errorf("ema: %w", err)
	}

	result := nanSeries(len(values))
	alpha := 2.0 / float64(period+1)
	ema := values[0]
	for i := 1; i < len(values); i++ {
		ema = alpha*values[i] + (1-alpha)*ema
		if i >= period-1 {
			result[i] = ema
		}
	}
	if period == 1 {
		result[0] = values[0]
	}
	return result, nil
}

// RSI computes the Relative Strength Index with Wilder smoothing: the
// first value is a simple average of the first period's gains and losses,
// subsequent values use the recursive (n-1)/n blend. A flat series reads
// 50, an all-gain series 100.
func RSI(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("rsi: period must be positive, got %d", period)
	}
	if len(closes) <= period {
		return nil, fmt.Errorf("rsi: %w: need %d closes, have %d",
			models.ErrInsufficientData, period+1, len(closes))
	}

	result := nanSeries(len(closes))

	sumGain, sumLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			sumGain += delta
		} else {
			sumLoss -= delta
		}
	}
	avgGain := sumGain / float64(period)
	avgLoss := sumLoss / float64(period)
	result[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		result[i] = rsiValue(avgGain, avgLoss)
	}

	return result, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case avgGain == 0 && avgLoss == 0:
		return 50
	case avgLoss == 0:
		return 100
	default:
		rs := avgGain / avgLoss
		return 100 - 100/(1+rs)
	}
}

// CrossedAbove reports whether series a crossed above series b at index i.
// NaN on either side of the comparison suppresses the signal.
func CrossedAbove(a, b []float64, i int) bool {
	if i < 1 || i >= len(a) || i >= len(b) {
		return false
	}
	if anyNaN(a[i-1], a[i], b[i-1], b[i]) {
		return false
	}
	return a[i-1] <= b[i-1] && a[i] > b[i]
}

// CrossedBelow reports whether series a crossed below series b at index i.
func CrossedBelow(a, b []float64, i int) bool {
	if i < 1 || i >= len(a) || i >= len(b) {
		return false
	}
	if anyNaN(a[i-1], a[i], b[i-1], b[i]) {
		return false
	}
	return a[i-1] >= b[i-1] && a[i] < b[i]
}

func validate(values []float64, period int) error {
	if period <= 0 {
		return fmt.Errorf("period must be positive, got %d", period)
	}
	if len(values) < period {
		return fmt.Errorf("%w: need %d values, have %d",
			models.ErrInsufficientData, period, len(values))
	}
	return nil
}

func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
