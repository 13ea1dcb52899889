// Package aggregate reduces a ledger into point-in-time positions.
//
// Two reductions exist. Positions reports composition: the average unit price
// is the cost-weighted average of BUY totals. Valuation reports market value
// on a date: the average unit price is the feed's close on that date. Both
// walk the ledger in chronological order and drop a symbol whenever its
// quantity returns to zero, so a later re-entry starts a fresh position.
package aggregate

import (
	"math"
	"time"

	"PortfolioLedger/internal/calculator"
	"PortfolioLedger/internal/ledger"
	"PortfolioLedger/internal/model"
)

// Pricer returns the closing price of symbol on a date, or 0 when unknown.
type Pricer interface {
	PriceOn(symbol string, on time.Time) float64
}

// Positions returns the composition of l as of asOf. A zero asOf includes
// every transaction.
func Positions(l *ledger.Ledger, asOf time.Time) map[string]model.Position {
	return reduce(upTo(l, asOf), nil)
}

// Valuation values the holdings of l on date on at the feed's closing prices.
func Valuation(l *ledger.Ledger, on time.Time, prices Pricer) map[string]model.Position {
	return reduce(l.Until(on), func(symbol string) float64 {
		return prices.PriceOn(symbol, on)
	})
}

// TotalValue sums the value of positions.
func TotalValue(positions map[string]model.Position) float64 {
	total := 0.0
	for _, p := range positions {
		total += p.TotalValue
	}
	return total
}

// QuantityAsOf returns the quantity of symbol held at the end of asOf.
func QuantityAsOf(l *ledger.Ledger, symbol string, asOf time.Time) float64 {
	var txs []model.Transaction
	for _, tx := range l.ForSymbol(symbol) {
		if tx.Date.After(asOf) {
			break
		}
		txs = append(txs, tx)
	}
	return reduce(txs, nil)[symbol].Quantity
}

// CostBasis sums BUY totals and every commission dated on or before asOf.
func CostBasis(l *ledger.Ledger, asOf time.Time) float64 {
	total := 0.0
	for _, tx := range l.Until(asOf) {
		if tx.Kind == model.Buy {
			total += tx.TotalValue
		}
		total += tx.CommissionFee
	}
	return total
}

func upTo(l *ledger.Ledger, asOf time.Time) []model.Transaction {
	if asOf.IsZero() {
		return l.Transactions()
	}
	return l.Until(asOf)
}

// reduce folds chronological txs into positions. When spot is set, a symbol's
// average price is fixed to spot(symbol) on its first appearance.
func reduce(txs []model.Transaction, spot func(string) float64) map[string]model.Position {
	out := make(map[string]model.Position)
	for _, tx := range txs {
		sym := tx.CompanySymbol
		pos, seen := out[sym]
		if !seen {
			pos = model.Position{Symbol: sym, CompanyName: tx.CompanyName}
			if spot != nil {
				pos.AvgUnitPrice = spot(sym)
			}
		}

		switch tx.Kind {
		case model.Buy:
			qty := pos.Quantity + tx.Quantity
			if spot == nil && qty > 0 {
				pos.AvgUnitPrice = (pos.TotalValue + tx.TotalValue) / qty
			}
			pos.Quantity = qty
		case model.Sell:
			pos.Quantity -= tx.Quantity
		}
		pos.TotalCommission += tx.CommissionFee
		pos.TotalValue = pos.Quantity * pos.AvgUnitPrice
		pos.Kind = tx.Kind

		if calculator.IsZero(pos.Quantity) {
			delete(out, sym)
			continue
		}
		out[sym] = pos
	}
	return out
}

// Envelope bounds how many units of a symbol can be sold on a date.
type Envelope struct {
	// AsOf is the running quantity at the last date on or before the target.
	AsOf float64
	// MinFuture is the lowest running quantity on any later date, or +Inf.
	MinFuture float64
	// Final is the running quantity after every transaction.
	Final float64
}

// QuantityEnvelope groups the signed quantities of symbol by date and walks
// the running total around target.
func QuantityEnvelope(l *ledger.Ledger, symbol string, target time.Time) Envelope {
	env := Envelope{MinFuture: math.Inf(1)}
	txs := l.ForSymbol(symbol)
	running := 0.0
	for i := 0; i < len(txs); {
		d := txs[i].Date
		for ; i < len(txs) && txs[i].Date.Equal(d); i++ {
			running += txs[i].SignedQuantity()
		}
		if d.After(target) {
			env.MinFuture = math.Min(env.MinFuture, running)
		} else {
			env.AsOf = running
		}
	}
	env.Final = running
	return env
}

// Available is the largest quantity sellable on the target date.
func (e Envelope) Available() float64 {
	return math.Max(0, math.Min(e.AsOf, e.MinFuture))
}

// CanSell reports whether selling n units keeps every date non-negative.
func (e Envelope) CanSell(n float64) bool {
	return n > 0 && n <= e.Available()+calculator.Epsilon
}
