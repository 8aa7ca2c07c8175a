// Package datasource loads OHLCV bar series from CSV files. Parsed
// series are memoized in-process so repeated walk-forward and portfolio
// runs over the same file do not re-read it.
package datasource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/yourusername/tradesim/internal/models"
)

// CSVLoader reads bar series of the form
// date,open,high,low,close,volume (header required, any column order).
type CSVLoader struct {
	cache *cache.Cache
}

// NewCSVLoader creates a loader with a 10 minute memoization window.
func NewCSVLoader() *CSVLoader {
	return &CSVLoader{
		cache: cache.New(10*time.Minute, 30*time.Minute),
	}
}

// LoadBars parses the CSV at path into a bar series, serving repeated
// loads of the same path from cache.
func (l *CSVLoader) LoadBars(path string) ([]models.Bar, error) {
	if cached, found := l.cache.Get(path); found {
		return cached.([]models.Bar), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	bars, err := ParseBars(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	l.cache.Set(path, bars, cache.DefaultExpiration)
	return bars, nil
}

// Invalidate drops a cached series, forcing the next load to re-read.
func (l *CSVLoader) Invalidate(path string) {
	l.cache.Delete(path)
}

// ParseBars reads a CSV bar series from r. The header row names the
// columns; date, open, high, low, close and volume are all required.
func ParseBars(r io.Reader) ([]models.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var bars []models.Bar
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line+1, err)
		}
		line++

		bar, err := parseBar(record, columns)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, models.ErrNoData
	}
	return bars, nil
}

type columnIndex struct {
	date, open, high, low, close, volume int
}

func mapColumns(header []string) (columnIndex, error) {
	idx := columnIndex{date: -1, open: -1, high: -1, low: -1, close: -1, volume: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date", "datetime", "timestamp":
			idx.date = i
		case "open":
			idx.open = i
		case "high":
			idx.high = i
		case "low":
			idx.low = i
		case "close", "adj close", "adj_close":
			if idx.close == -1 || strings.EqualFold(name, "close") {
				idx.close = i
			}
		case "volume":
			idx.volume = i
		}
	}
	for _, pair := range []struct {
		name string
		i    int
	}{
		{"date", idx.date}, {"open", idx.open}, {"high", idx.high},
		{"low", idx.low}, {"close", idx.close}, {"volume", idx.volume},
	} {
		if pair.i == -1 {
			return idx, fmt.Errorf("missing required column %q in header %v", pair.name, header)
		}
	}
	return idx, nil
}

func parseBar(record []string, idx columnIndex) (models.Bar, error) {
	var bar models.Bar
	max := idx.date
	for _, i := range []int{idx.open, idx.high, idx.low, idx.close, idx.volume} {
		if i > max {
			max = i
		}
	}
	if len(record) <= max {
		return bar, fmt.Errorf("expected at least %d fields, got %d", max+1, len(record))
	}

	bar.Date = strings.TrimSpace(record[idx.date])
	if _, err := bar.Time(); err != nil {
		return bar, fmt.Errorf("bad date %q: %w", bar.Date, err)
	}

	values := map[string]struct {
		field *float64
		raw   string
	}{
		"open":   {&bar.Open, record[idx.open]},
		"high":   {&bar.High, record[idx.high]},
		"low":    {&bar.Low, record[idx.low]},
		"close":  {&bar.Close, record[idx.close]},
		"volume": {&bar.Volume, record[idx.volume]},
	}
	for name, v := range values {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.raw), 64)
		if err != nil {
			return bar, fmt.Errorf("bad %s %q: %w", name, v.raw, err)
		}
		*v.field = parsed
	}

	if bar.High < bar.Low {
		return bar, fmt.Errorf("high %.4f below low %.4f", bar.High, bar.Low)
	}
	return bar, nil
}
