package aggregate

import (
	"math"
	"testing"
	"time"

	"PortfolioLedger/internal/ledger"
	"PortfolioLedger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPrices map[string]float64

func (p fixedPrices) PriceOn(symbol string, _ time.Time) float64 { return p[symbol] }

func day(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func tx(date, symbol string, kind model.Kind, qty, price, fee float64) model.Transaction {
	return model.NewTransaction(day(date), symbol, symbol+" Corp", qty, price, fee, kind)
}

func TestPositions_WeightedAverage(t *testing.T) {
	l := ledger.New("p",
		tx("2022-01-03", "AMZN", model.Buy, 10, 14, 20),
		tx("2022-01-10", "AMZN", model.Buy, 30, 16, 20),
	)
	got := Positions(l, day("2022-01-10"))
	require.Contains(t, got, "AMZN")

	p := got["AMZN"]
	assert.Equal(t, 40.0, p.Quantity)
	assert.InDelta(t, 15.5, p.AvgUnitPrice, 1e-9)
	assert.InDelta(t, 620.0, p.TotalValue, 1e-9)
	assert.Equal(t, 40.0, p.TotalCommission)
	assert.Equal(t, "AMZN Corp", p.CompanyName)

	early := Positions(l, day("2022-01-05"))
	assert.Equal(t, 10.0, early["AMZN"].Quantity)
	assert.Equal(t, 14.0, early["AMZN"].AvgUnitPrice)
}

func TestPositions_SellKeepsAverage(t *testing.T) {
	l := ledger.New("p",
		tx("2022-01-03", "MSFT", model.Buy, 10, 100, 1),
		tx("2022-02-03", "MSFT", model.Sell, 4, 150, 1),
		tx("2022-03-03", "MSFT", model.Buy, 6, 200, 1),
	)
	p := Positions(l, time.Time{})["MSFT"]
	assert.Equal(t, 12.0, p.Quantity)
	// (6*100 + 6*200) / 12
	assert.InDelta(t, 150.0, p.AvgUnitPrice, 1e-9)
	assert.Equal(t, 3.0, p.TotalCommission)
	assert.Equal(t, model.Buy, p.Kind)

	afterSell := Positions(l, day("2022-02-03"))["MSFT"]
	assert.Equal(t, 6.0, afterSell.Quantity)
	assert.Equal(t, 100.0, afterSell.AvgUnitPrice)
	assert.Equal(t, model.Sell, afterSell.Kind)
}

func TestPositions_DropsZeroQuantity(t *testing.T) {
	l := ledger.New("p",
		tx("2022-01-03", "AMZN", model.Buy, 10, 14, 1),
		tx("2022-01-04", "GOOG", model.Buy, 0.3, 10, 1),
		tx("2022-02-03", "AMZN", model.Sell, 10, 15, 1),
		tx("2022-02-04", "GOOG", model.Sell, 0.1, 10, 1),
		tx("2022-02-05", "GOOG", model.Sell, 0.2, 10, 1),
	)
	got := Positions(l, time.Time{})
	assert.Empty(t, got)
	for _, p := range Positions(l, day("2022-01-31")) {
		assert.NotZero(t, p.Quantity)
	}
}

func TestPositions_ReentryStartsFresh(t *testing.T) {
	l := ledger.New("p",
		tx("2022-01-03", "AMZN", model.Buy, 10, 10, 1),
		tx("2022-02-03", "AMZN", model.Sell, 10, 15, 1),
		tx("2022-03-03", "AMZN", model.Buy, 5, 20, 1),
	)
	p := Positions(l, time.Time{})["AMZN"]
	assert.Equal(t, 5.0, p.Quantity)
	assert.Equal(t, 20.0, p.AvgUnitPrice)
	assert.Equal(t, 1.0, p.TotalCommission)
}

func TestValuation_UsesSpotPrice(t *testing.T) {
	l := ledger.New("p",
		tx("2022-01-03", "AMZN", model.Buy, 10, 14, 20),
		tx("2022-01-10", "AMZN", model.Buy, 30, 16, 20),
		tx("2022-01-12", "MSFT", model.Buy, 2, 300, 5),
		tx("2022-03-01", "MSFT", model.Buy, 2, 300, 5),
	)
	got := Valuation(l, day("2022-02-01"), fixedPrices{"AMZN": 20, "MSFT": 250})
	require.Len(t, got, 2)
	assert.Equal(t, 20.0, got["AMZN"].AvgUnitPrice)
	assert.Equal(t, 800.0, got["AMZN"].TotalValue)
	assert.Equal(t, 2.0, got["MSFT"].Quantity, "later purchases are excluded")
	assert.Equal(t, 500.0, got["MSFT"].TotalValue)
	assert.Equal(t, 1300.0, TotalValue(got))
}

func TestQuantityAsOf(t *testing.T) {
	l := ledger.New("p",
		tx("2022-01-03", "AMZN", model.Buy, 10, 14, 1),
		tx("2022-01-10", "AMZN", model.Sell, 4, 16, 1),
		tx("2022-01-10", "MSFT", model.Buy, 7, 16, 1),
	)
	assert.Equal(t, 0.0, QuantityAsOf(l, "AMZN", day("2022-01-02")))
	assert.Equal(t, 10.0, QuantityAsOf(l, "AMZN", day("2022-01-09")))
	assert.Equal(t, 6.0, QuantityAsOf(l, "AMZN", day("2022-01-10")))
	assert.Equal(t, 0.0, QuantityAsOf(l, "IBM", day("2022-01-10")))
}

func TestCostBasis(t *testing.T) {
	l := ledger.New("p",
		tx("2022-01-03", "AMZN", model.Buy, 10, 14, 20),
		tx("2022-01-10", "AMZN", model.Sell, 5, 16, 3),
		tx("2022-02-01", "MSFT", model.Buy, 1, 300, 2),
	)
	assert.Equal(t, 0.0, CostBasis(l, day("2022-01-01")))
	assert.Equal(t, 160.0, CostBasis(l, day("2022-01-03")))
	assert.Equal(t, 163.0, CostBasis(l, day("2022-01-31")))
	assert.Equal(t, 465.0, CostBasis(l, day("2022-02-01")))

	prev := 0.0
	for d := day("2021-12-25"); d.Before(day("2022-02-10")); d = d.AddDate(0, 0, 1) {
		cb := CostBasis(l, d)
		assert.GreaterOrEqual(t, cb, prev, "cost basis decreased on %s", model.FormatDate(d))
		prev = cb
	}
}

func TestQuantityEnvelope(t *testing.T) {
	l := ledger.New("p",
		tx("2022-01-01", "AMZN", model.Buy, 10, 1, 1),
		tx("2022-02-01", "AMZN", model.Sell, 8, 1, 1),
		tx("2022-03-01", "AMZN", model.Buy, 5, 1, 1),
		tx("2022-03-01", "AMZN", model.Sell, 1, 1, 1),
	)

	tests := []struct {
		target    string
		asOf      float64
		minFuture float64
		available float64
	}{
		{"2021-12-31", 0, 2, 0},
		{"2022-01-15", 10, 2, 2},
		{"2022-02-01", 2, 6, 2},
		{"2022-03-01", 6, math.Inf(1), 6},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			env := QuantityEnvelope(l, "AMZN", day(tt.target))
			assert.Equal(t, tt.asOf, env.AsOf)
			assert.Equal(t, tt.minFuture, env.MinFuture)
			assert.Equal(t, tt.available, env.Available())
			assert.Equal(t, 6.0, env.Final)
		})
	}

	env := QuantityEnvelope(l, "AMZN", day("2022-01-15"))
	assert.True(t, env.CanSell(2))
	assert.False(t, env.CanSell(2.01), "selling more would make February negative")
	assert.False(t, env.CanSell(0))

	none := QuantityEnvelope(l, "MSFT", day("2022-01-15"))
	assert.False(t, none.CanSell(1))
}

func TestCanSellMatchesHoldingsCheck(t *testing.T) {
	base := []model.Transaction{
		tx("2022-01-01", "AMZN", model.Buy, 10, 1, 1),
		tx("2022-02-01", "AMZN", model.Sell, 8, 1, 1),
		tx("2022-03-01", "AMZN", model.Buy, 5, 1, 1),
	}
	for _, target := range []string{"2021-12-01", "2022-01-10", "2022-02-15", "2022-04-01"} {
		for n := 1.0; n <= 12; n++ {
			l := ledger.New("p", base...)
			env := QuantityEnvelope(l, "AMZN", day(target))
			l.Add(tx(target, "AMZN", model.Sell, n, 1, 1))
			valid := l.CheckHoldings() == nil
			assert.Equal(t, valid, env.CanSell(n), "sell %.0f on %s", n, target)
		}
	}
}
