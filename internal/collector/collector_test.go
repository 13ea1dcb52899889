package collector

import (
	"errors"
	"testing"
	"time"

	"PortfolioLedger/internal/logging"
	"PortfolioLedger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func dates(points []model.PricePoint) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = model.FormatDate(p.Date)
	}
	return out
}

func testFeed() (*Feed, *MockFetcher) {
	m := &MockFetcher{
		Daily: map[string]Series{
			"AMZN": {
				"2022-01-03": 170.4,
				"2022-01-04": 167.5,
				"2022-01-05": 164.4,
				"2022-01-07": 162.6,
				"2022-01-10": 161.1,
			},
		},
		Monthly: map[string]Series{
			"AMZN": {
				"2020-11-30": 3168.0,
				"2020-12-31": 3256.9,
				"2021-01-29": 3206.2,
				"2021-06-30": 3440.2,
				"2021-12-31": 3334.3,
				"2022-01-31": 2991.5,
				"2022-02-28": 3071.3,
				"2022-03-31": 3259.9,
			},
		},
	}
	return NewFeed(m, NewCache(time.Hour), logging.NewSilent()), m
}

func TestFeed_PriceOn(t *testing.T) {
	f, _ := testFeed()
	assert.Equal(t, 167.5, f.PriceOn("AMZN", day("2022-01-04")))
	assert.Equal(t, 164.4, f.PriceOn("AMZN", day("2022-01-06")), "weekend falls back to last close")
	assert.Equal(t, 161.1, f.PriceOn("AMZN", day("2023-01-01")))
	assert.Equal(t, 0.0, f.PriceOn("AMZN", day("2021-12-31")))
	assert.Equal(t, 0.0, f.PriceOn("NOPE", day("2022-01-04")))
}

func TestFeed_RangeDaily(t *testing.T) {
	f, _ := testFeed()
	got := f.Range("AMZN", day("2022-01-04"), day("2022-01-07"), model.Daily)
	assert.Equal(t, []string{"2022-01-04", "2022-01-05", "2022-01-07"}, dates(got))
	assert.Equal(t, 167.5, got[0].Close)
}

func TestFeed_RangeMonthlyWidensToWholeMonths(t *testing.T) {
	f, _ := testFeed()
	got := f.Range("AMZN", day("2021-01-15"), day("2022-02-01"), model.Monthly)
	assert.Equal(t, []string{"2021-01-29", "2021-06-30", "2021-12-31", "2022-01-31", "2022-02-28"}, dates(got))
}

func TestFeed_RangeYearlyKeepsDecemberAndEndMonth(t *testing.T) {
	f, _ := testFeed()
	got := f.Range("AMZN", day("2020-01-01"), day("2022-02-10"), model.Yearly)
	assert.Equal(t, []string{"2020-12-31", "2021-12-31", "2022-02-28"}, dates(got))
}

func TestFeed_FailSoft(t *testing.T) {
	m := &MockFetcher{Err: errors.New("provider down")}
	f := NewFeed(m, nil, logging.NewSilent())

	assert.Empty(t, f.Series(model.Daily, "AMZN"))
	assert.Equal(t, 0.0, f.PriceOn("AMZN", day("2022-01-04")))
	assert.Empty(t, f.Range("AMZN", day("2022-01-01"), day("2022-02-01"), model.Monthly))
}

func TestFeed_CachesSeries(t *testing.T) {
	f, m := testFeed()
	f.PriceOn("AMZN", day("2022-01-04"))
	f.PriceOn("AMZN", day("2022-01-05"))
	f.Range("AMZN", day("2020-01-01"), day("2022-01-01"), model.Monthly)
	f.Range("AMZN", day("2020-01-01"), day("2022-01-01"), model.Yearly)
	assert.Equal(t, 2, m.Calls(), "one fetch per granularity")
}

func TestCache_Expiry(t *testing.T) {
	now := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", Series{"2022-01-01": 1})
	s, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 1.0, s["2022-01-01"])

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Purge())

	disabled := NewCache(0)
	disabled.Set("k", Series{})
	_, ok = disabled.Get("k")
	assert.False(t, ok)
}
