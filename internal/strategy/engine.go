// Package strategy generates the purchases of a dollar-cost averaging plan.
package strategy

import (
	"fmt"
	"time"

	"PortfolioLedger/internal/calculator"
	"PortfolioLedger/internal/ledger"
	"PortfolioLedger/internal/model"

	"github.com/shopspring/decimal"
)

// PriceSource is the part of the price feed a plan needs.
type PriceSource interface {
	PriceOn(symbol string, on time.Time) float64
	Range(symbol string, start, end time.Time, g model.Granularity) []model.PricePoint
}

// Result is the output of one plan application.
type Result struct {
	Transactions []model.Transaction
	Invested     float64
	Fees         float64
	// Skipped lists symbol@date pairs with no usable price.
	Skipped []string
}

// Generate emits one BUY per symbol per purchase date. Each symbol receives
// its weight of the amount net of fees. Budgets and fee shares are truncated
// to cents so the stored plan never spends more than the amount. Quantities
// are truncated to two decimals and may be zero when the budget buys less
// than a hundredth of a share; the BUY is still recorded at its budget.
func Generate(p Plan, dir ledger.Directory, prices PriceSource) (*Result, error) {
	amount := decimal.NewFromFloat(p.Amount)
	feePct := decimal.NewFromFloat(p.FeePercent)
	fees := calculator.Percent(amount, feePct)
	net := amount.Sub(fees)

	res := &Result{}
	for _, a := range MergeAllocations(p.Allocations) {
		name, ok := dir.Lookup(a.Symbol)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ledger.ErrUnknownSymbol, a.Symbol)
		}
		w := decimal.NewFromFloat(a.Weight)
		budget := calculator.Percent(net, w).Truncate(2)
		feeShare := calculator.Percent(fees, w).Truncate(2)

		for _, pt := range purchaseDates(p, a.Symbol, prices) {
			if pt.Close <= 0 {
				res.Skipped = append(res.Skipped, a.Symbol+"@"+model.FormatDate(pt.Date))
				continue
			}
			qty, err := calculator.TruncateQuotient(budget, decimal.NewFromFloat(pt.Close))
			if err != nil {
				res.Skipped = append(res.Skipped, a.Symbol+"@"+model.FormatDate(pt.Date))
				continue
			}
			tx := model.NewTransaction(pt.Date, a.Symbol, name, qty.InexactFloat64(), pt.Close,
				feeShare.InexactFloat64(), model.Buy).WithTotalValue(budget.InexactFloat64())
			res.Transactions = append(res.Transactions, tx)
			res.Invested += tx.TotalValue
			res.Fees += tx.CommissionFee
		}
	}
	return res, nil
}

func purchaseDates(p Plan, symbol string, prices PriceSource) []model.PricePoint {
	if p.Schedule == nil {
		return []model.PricePoint{{Date: model.Day(p.Date), Close: prices.PriceOn(symbol, p.Date)}}
	}
	s := p.Schedule
	return prices.Range(symbol, s.Start, s.End, s.Granularity)
}
