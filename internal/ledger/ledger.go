// Package ledger holds the append-only transaction list of a portfolio.
//
// A Ledger keeps its transactions in chronological order: Add inserts after
// every transaction on the same or an earlier date, so same-day entries keep
// their insertion order. Reductions can therefore walk the slice directly.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"PortfolioLedger/internal/calculator"
	"PortfolioLedger/internal/model"
)

var (
	ErrNegativeHolding = errors.New("running quantity goes negative")
	ErrUnknownSymbol   = errors.New("unknown company symbol")
	ErrNameMismatch    = errors.New("company name does not match symbol")
	ErrInvalidNumber   = errors.New("invalid numeric field")
)

// Ledger is the ordered transaction history of one portfolio.
type Ledger struct {
	name string
	txs  []model.Transaction
}

// New builds a ledger from txs, sorting them stably by date.
func New(name string, txs ...model.Transaction) *Ledger {
	l := &Ledger{name: name, txs: make([]model.Transaction, len(txs))}
	copy(l.txs, txs)
	sort.SliceStable(l.txs, func(i, j int) bool {
		return l.txs[i].Date.Before(l.txs[j].Date)
	})
	return l
}

func (l *Ledger) Name() string { return l.name }

func (l *Ledger) Len() int { return len(l.txs) }

// Add inserts tx at its chronological position.
func (l *Ledger) Add(tx model.Transaction) {
	i := sort.Search(len(l.txs), func(i int) bool {
		return l.txs[i].Date.After(tx.Date)
	})
	l.txs = append(l.txs, model.Transaction{})
	copy(l.txs[i+1:], l.txs[i:])
	l.txs[i] = tx
}

// Transactions returns a copy of the ledger in chronological order.
func (l *Ledger) Transactions() []model.Transaction {
	out := make([]model.Transaction, len(l.txs))
	copy(out, l.txs)
	return out
}

// Until returns the transactions dated on or before asOf.
func (l *Ledger) Until(asOf time.Time) []model.Transaction {
	i := sort.Search(len(l.txs), func(i int) bool {
		return l.txs[i].Date.After(asOf)
	})
	out := make([]model.Transaction, i)
	copy(out, l.txs[:i])
	return out
}

// ForSymbol returns the chronological transactions of one symbol.
func (l *Ledger) ForSymbol(symbol string) []model.Transaction {
	var out []model.Transaction
	for _, tx := range l.txs {
		if tx.CompanySymbol == symbol {
			out = append(out, tx)
		}
	}
	return out
}

// Symbols returns every symbol that ever appeared, sorted.
func (l *Ledger) Symbols() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tx := range l.txs {
		if _, ok := seen[tx.CompanySymbol]; ok {
			continue
		}
		seen[tx.CompanySymbol] = struct{}{}
		out = append(out, tx.CompanySymbol)
	}
	sort.Strings(out)
	return out
}

// CheckHoldings verifies that no symbol's running quantity, summed per date in
// chronological order, drops below zero.
func (l *Ledger) CheckHoldings() error {
	running := make(map[string]float64)
	for i := 0; i < len(l.txs); {
		day := l.txs[i].Date
		j := i
		for j < len(l.txs) && l.txs[j].Date.Equal(day) {
			running[l.txs[j].CompanySymbol] += l.txs[j].SignedQuantity()
			j++
		}
		for k := i; k < j; k++ {
			sym := l.txs[k].CompanySymbol
			if running[sym] < -calculator.Epsilon {
				return fmt.Errorf("%w: %s on %s", ErrNegativeHolding, sym, model.FormatDate(day))
			}
		}
		i = j
	}
	return nil
}

// Validate checks the per-transaction rules enforced on load: non-negative
// numbers, known kind, and a symbol whose directory name matches.
func Validate(tx model.Transaction, dir Directory) error {
	if tx.Quantity < 0 || tx.UnitPrice < 0 || tx.TotalValue < 0 || tx.CommissionFee < 0 {
		return fmt.Errorf("%w: negative value for %s", ErrInvalidNumber, tx.CompanySymbol)
	}
	if tx.Kind != model.Buy && tx.Kind != model.Sell {
		return fmt.Errorf("unknown transaction type %q", tx.Kind)
	}
	if dir == nil {
		return nil
	}
	name, ok := dir.Lookup(tx.CompanySymbol)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, tx.CompanySymbol)
	}
	if name != tx.CompanyName {
		return fmt.Errorf("%w: %s is %q, not %q", ErrNameMismatch, tx.CompanySymbol, name, tx.CompanyName)
	}
	return nil
}

// Directory resolves a symbol to its company name.
type Directory interface {
	Lookup(symbol string) (string, bool)
}
