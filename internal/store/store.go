// Package store persists portfolio ledgers.
package store

import (
	"errors"
	"time"

	"PortfolioLedger/internal/ledger"
	"PortfolioLedger/internal/model"
)

var ErrNotFound = errors.New("portfolio not found")

// Repository loads and saves ledgers by portfolio name. Load re-validates the
// stored data and fails without returning a partial ledger.
type Repository interface {
	List() ([]string, error)
	Load(name string) (*ledger.Ledger, error)
	Create(typ model.PortfolioType, txs []model.Transaction) (string, error)
	Append(name string, txs []model.Transaction) error
}

// uniqueID returns the identifier for now, moving forward a second at a time
// while taken reports a collision.
func uniqueID(now time.Time, typ model.PortfolioType, taken func(string) bool) string {
	for {
		id := ledger.NewID(now, typ)
		if !taken(id) {
			return id
		}
		now = now.Add(time.Second)
	}
}
