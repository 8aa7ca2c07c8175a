// Package models defines the core data types shared across the simulation engine.
package models

import (
	"fmt"
	"time"
)

// Bar represents one OHLCV period. Bars are immutable inputs ordered
// ascending by date; engine logic addresses them by index.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

var barLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time parses the bar date, accepting RFC3339 timestamps or plain dates.
func (b Bar) Time() (time.Time, error) {
	for _, layout := range barLayouts {
		if t, err := time.Parse(layout, b.Date); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable bar date %q", b.Date)
}

// Intraday reports whether the bar date carries a time component. Daily
// bars parse as plain dates and have no meaningful session clock.
func (b Bar) Intraday() bool {
	_, err := time.Parse("2006-01-02", b.Date)
	return err != nil
}

// RangeRatio returns the intraday range relative to the close, used by the
// slippage volatility tiers and panic detection.
func (b Bar) RangeRatio() float64 {
	if b.Close == 0 {
		return 0
	}
	return (b.High - b.Low) / b.Close
}
