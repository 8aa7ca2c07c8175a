package execution

import "github.com/yourusername/tradesim/internal/models"

// LatencySimulator models execution delay: an order decided on one bar is
// filled against a later bar's open, reproducing the effect that orders
// are never executed at the exact signal instant.
type LatencySimulator struct {
	delayBars int
}

// NewLatencySimulator creates a latency simulator. A delay of zero means
// fills happen on the signal bar itself.
func NewLatencySimulator(delayBars int) *LatencySimulator {
	if delayBars < 0 {
		delayBars = 0
	}
	return &LatencySimulator{delayBars: delayBars}
}

// DelayedFill locates where a delayed order actually executes.
type DelayedFill struct {
	Index int
	Price float64
}

// Apply shifts a fill from the signal bar to the delayed bar. The second
// return value is false when the delay pushes the fill past the end of the
// data, meaning the order never executes.
func (l *LatencySimulator) Apply(bars []models.Bar, signalIndex int) (DelayedFill, bool) {
	target := signalIndex + l.delayBars
	if target >= len(bars) || target < 0 {
		return DelayedFill{}, false
	}
	price := bars[target].Open
	if l.delayBars == 0 {
		price = bars[target].Close
	}
	return DelayedFill{Index: target, Price: price}, true
}

// DelayBars returns the configured delay.
func (l *LatencySimulator) DelayBars() int {
	return l.delayBars
}
