// Package performance builds date-bucketed portfolio value series for display.
package performance

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"PortfolioLedger/internal/aggregate"
	"PortfolioLedger/internal/calculator"
	"PortfolioLedger/internal/ledger"
	"PortfolioLedger/internal/model"

	"github.com/rs/zerolog"
)

const (
	// MinPoints is the shortest series that can be rendered.
	MinPoints = 5
	// MaxPoints is the display cap applied by Downsample.
	MaxPoints = 30
	// WindowSize is the number of points merged into one bucket.
	WindowSize = 5
	// Levels is the height of the tallest rendered bar.
	Levels = 20
)

var (
	ErrInsufficientData = errors.New("insufficient market data for range")
	ErrTooFewPoints     = errors.New("too few points to render performance")
)

// RangeSource returns chronological closes of a symbol within a date range.
type RangeSource interface {
	Range(symbol string, start, end time.Time, g model.Granularity) []model.PricePoint
}

// Engine values a ledger across a generated date axis.
type Engine struct {
	prices RangeSource
	log    zerolog.Logger
}

func NewEngine(prices RangeSource, log zerolog.Logger) *Engine {
	return &Engine{prices: prices, log: log.With().Str("component", "performance").Logger()}
}

// ChooseGranularity picks Yearly for spans of five or more calendar years,
// Monthly for five or more calendar months, and Daily otherwise.
func ChooseGranularity(start, end time.Time) model.Granularity {
	yearSpan := end.Year() - start.Year() + 1
	if yearSpan >= 5 {
		return model.Yearly
	}
	if yearSpan < 1 {
		yearSpan = 1
	}
	monthSpan := int(end.Month()) - int(start.Month()) + 1 + 12*(yearSpan-1)
	if monthSpan >= 5 {
		return model.Monthly
	}
	return model.Daily
}

// Build values every symbol of l at each price point in [start, end], sums the
// per-symbol series and down-samples the result.
func (e *Engine) Build(l *ledger.Ledger, start, end time.Time) (*model.PerformanceResult, error) {
	g := ChooseGranularity(start, end)

	var labels []time.Time
	var series [][]float64
	for _, sym := range l.Symbols() {
		points := e.prices.Range(sym, start, end, g)
		if labels != nil && len(points) != len(labels) {
			e.log.Warn().Str("portfolio", l.Name()).Str("symbol", sym).
				Int("points", len(points)).Int("expected", len(labels)).Msg("price point count mismatch")
			return nil, fmt.Errorf("%w: %s has %d points, expected %d", ErrInsufficientData, sym, len(points), len(labels))
		}
		if labels == nil {
			labels = make([]time.Time, len(points))
			for i, p := range points {
				labels[i] = p.Date
			}
		}
		values := make([]float64, len(points))
		for i, p := range points {
			values[i] = aggregate.QuantityAsOf(l, sym, p.Date) * p.Close
		}
		series = append(series, values)
	}

	if len(labels) < MinPoints {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(labels))
	}
	total, err := calculator.SumSeries(series)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientData, err)
	}

	points := make([]model.PerformancePoint, len(total))
	for i, v := range total {
		points[i] = model.PerformancePoint{Label: model.FormatDate(labels[i]), Value: v}
	}
	res := Downsample(points)
	res.PortfolioName = l.Name()
	res.Granularity = g.String()
	return res, nil
}

// Downsample sorts points by label, compresses series longer than MaxPoints
// into consecutive windows labelled "first..last" that keep the last value,
// and converts values into rendering levels.
//
// Windows hold WindowSize points. Inputs longer than MaxPoints*WindowSize use
// wider windows so the result never exceeds MaxPoints.
func Downsample(points []model.PerformancePoint) *model.PerformanceResult {
	sorted := make([]model.PerformancePoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Label < sorted[j].Label })

	out := sorted
	if len(sorted) > MaxPoints {
		size := WindowSize
		// Past MaxPoints*WindowSize inputs the cap wins over the fixed window:
		// each window then holds more than WindowSize points.
		if n := int(math.Ceil(float64(len(sorted)) / MaxPoints)); n > size {
			size = n
		}
		out = make([]model.PerformancePoint, 0, (len(sorted)+size-1)/size)
		for i := 0; i < len(sorted); i += size {
			j := min(i+size, len(sorted)) - 1
			out = append(out, model.PerformancePoint{
				Label: sorted[i].Label + ".." + sorted[j].Label,
				Value: sorted[j].Value,
			})
		}
	}

	res := &model.PerformanceResult{Points: out, ScaleFactor: 1}
	if len(out) == 0 {
		return res
	}
	values := make([]float64, len(out))
	for i := range out {
		out[i].Amount = out[i].Value
		values[i] = out[i].Value
	}
	scale, levels, err := calculator.ScaleLevels(values, Levels)
	if err != nil {
		return res
	}
	for i := range out {
		out[i].Value = levels[i]
	}
	res.ScaleFactor = scale
	return res
}
