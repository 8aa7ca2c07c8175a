package portfolio

import (
	"math"
	"sort"

	"github.com/yourusername/tradesim/internal/models"
)

// minOverlap is the smallest number of common return observations needed
// before a pairwise correlation is trusted; sparser overlaps read as 0.
const minOverlap = 3

// CorrelationMatrix holds pairwise Pearson correlations of daily returns,
// computed once before replay from each symbol's own bar series.
type CorrelationMatrix struct {
	symbols []string
	index   map[string]int
	values  [][]float64
}

// Get returns the correlation between two symbols. Unknown symbols read
// as 0.
func (m *CorrelationMatrix) Get(a, b string) float64 {
	i, ok := m.index[a]
	if !ok {
		return 0
	}
	j, ok := m.index[b]
	if !ok {
		return 0
	}
	return m.values[i][j]
}

// Symbols returns the matrix row order.
func (m *CorrelationMatrix) Symbols() []string {
	return m.symbols
}

// NewCorrelationMatrix computes the matrix from per-symbol bar series.
// Returns are aligned by bar date, so symbols with disjoint calendars
// correlate only over their common dates.
func NewCorrelationMatrix(data map[string][]models.Bar, symbols []string) *CorrelationMatrix {
	matrix := &CorrelationMatrix{
		symbols: symbols,
		index:   make(map[string]int, len(symbols)),
		values:  make([][]float64, len(symbols)),
	}

	returns := make([]map[string]float64, len(symbols))
	for i, sym := range symbols {
		matrix.index[sym] = i
		matrix.values[i] = make([]float64, len(symbols))
		returns[i] = dailyReturns(data[sym])
	}

	for i := range symbols {
		matrix.values[i][i] = 1
		for j := i + 1; j < len(symbols); j++ {
			corr := pearson(returns[i], returns[j])
			matrix.values[i][j] = corr
			matrix.values[j][i] = corr
		}
	}
	return matrix
}

// dailyReturns maps each bar date to the close-to-close return ending on
// that date.
func dailyReturns(bars []models.Bar) map[string]float64 {
	out := make(map[string]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			continue
		}
		out[bars[i].Date] = bars[i].Close/prev - 1
	}
	return out
}

func pearson(a, b map[string]float64) float64 {
	// Accumulate in date order so the float summation is identical across
	// runs regardless of map iteration.
	var dates []string
	for date := range a {
		if _, ok := b[date]; ok {
			dates = append(dates, date)
		}
	}
	if len(dates) < minOverlap {
		return 0
	}
	sort.Strings(dates)

	xs := make([]float64, len(dates))
	ys := make([]float64, len(dates))
	for i, date := range dates {
		xs[i] = a[date]
		ys[i] = b[date]
	}

	meanX, meanY := mean(xs), mean(ys)
	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
