// Package collector is the market data feed: provider fetchers, an in-memory
// series cache and the fail-soft Feed the engines price against.
package collector

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"PortfolioLedger/internal/model"

	"github.com/rs/zerolog"
)

// MockFetcher returns fixed series for development and testing.
type MockFetcher struct {
	mu      sync.Mutex
	Daily   map[string]Series
	Monthly map[string]Series
	Err     error
	calls   int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSeries(g model.Granularity, symbol string) (Series, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.Err != nil {
		return nil, m.Err
	}
	src := m.Monthly
	if g == model.Daily {
		src = m.Daily
	}
	s, ok := src[symbol]
	if !ok {
		return nil, fmt.Errorf("mock: no %s series for %s", g, symbol)
	}
	return s, nil
}

// Calls returns how many times FetchSeries was invoked.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Feed wraps a Fetcher with caching and the fail-soft policy: provider errors
// are logged and surface as an empty series or a zero price.
type Feed struct {
	Fetcher Fetcher
	cache   *Cache
	log     zerolog.Logger
}

// NewFeed creates a Feed. cache may be nil.
func NewFeed(fetcher Fetcher, cache *Cache, log zerolog.Logger) *Feed {
	return &Feed{
		Fetcher: fetcher,
		cache:   cache,
		log:     log.With().Str("component", "feed").Str("provider", fetcher.Name()).Logger(),
	}
}

// Series returns the full series for symbol, or an empty series on failure.
func (f *Feed) Series(g model.Granularity, symbol string) Series {
	s, err := f.Fetch(g, symbol)
	if err != nil {
		f.log.Warn().Err(err).Str("symbol", symbol).Str("granularity", g.String()).Msg("price series unavailable")
		return Series{}
	}
	return s
}

// Fetch returns the series for symbol, consulting the cache first.
func (f *Feed) Fetch(g model.Granularity, symbol string) (Series, error) {
	if g == model.Yearly {
		g = model.Monthly
	}
	key := f.Fetcher.Name() + "|" + g.String() + "|" + symbol
	if s, ok := f.cache.Get(key); ok {
		return s, nil
	}
	s, err := f.Fetcher.FetchSeries(g, symbol)
	if err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return nil, errors.New("empty series")
	}
	f.cache.Set(key, s)
	return s, nil
}

// PriceOn returns the latest daily close on or before on, or 0 if none.
func (f *Feed) PriceOn(symbol string, on time.Time) float64 {
	target := model.FormatDate(on)
	best := ""
	price := 0.0
	for date, c := range f.Series(model.Daily, symbol) {
		if date <= target && date > best {
			best, price = date, c
		}
	}
	return price
}

// Range returns the chronological closes of symbol within [start, end]. For
// Monthly and Yearly the bounds widen to whole months; Yearly keeps only
// December closes and the close of end's month.
func (f *Feed) Range(symbol string, start, end time.Time, g model.Granularity) []model.PricePoint {
	start, end = model.Day(start), model.Day(end)
	if g != model.Daily {
		start = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(end.Year(), end.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	}
	endMonth := end.Format("2006-01")

	var points []model.PricePoint
	for date, c := range f.Series(g, symbol) {
		d, err := model.ParseDate(date)
		if err != nil || d.Before(start) || d.After(end) {
			continue
		}
		if g == model.Yearly && d.Month() != time.December && d.Format("2006-01") != endMonth {
			continue
		}
		points = append(points, model.PricePoint{Date: d, Close: c})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points
}
