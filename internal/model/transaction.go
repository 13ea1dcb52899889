package model

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the direction of a transaction.
type Kind string

const (
	Buy  Kind = "BUY"
	Sell Kind = "SELL"
)

// Sign is +1 for buys and -1 for sells.
func (k Kind) Sign() float64 {
	if k == Sell {
		return -1
	}
	return 1
}

// ParseKind accepts BUY or SELL in any letter case.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// Transaction is a single immutable ledger entry.
type Transaction struct {
	Date          time.Time `json:"date"`
	CompanySymbol string    `json:"company_symbol"`
	CompanyName   string    `json:"company_name"`
	Quantity      float64   `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	TotalValue    float64   `json:"total_value"`
	CommissionFee float64   `json:"commission_fee"`
	Kind          Kind      `json:"kind"`
}

// NewTransaction builds a transaction whose total value is quantity times unit price.
func NewTransaction(date time.Time, symbol, name string, quantity, unitPrice, fee float64, kind Kind) Transaction {
	return Transaction{
		Date:          Day(date),
		CompanySymbol: symbol,
		CompanyName:   name,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		TotalValue:    quantity * unitPrice,
		CommissionFee: fee,
		Kind:          kind,
	}
}

// WithTotalValue returns a copy carrying an explicit total value.
func (t Transaction) WithTotalValue(v float64) Transaction {
	t.TotalValue = v
	return t
}

// SignedQuantity is the quantity with the sign of the transaction kind.
func (t Transaction) SignedQuantity() float64 {
	return t.Quantity * t.Kind.Sign()
}
