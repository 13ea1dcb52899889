package ledger

import (
	"fmt"
	"strings"
	"time"

	"PortfolioLedger/internal/model"
)

const (
	idPrefix     = "Portfolio_"
	idTimeLayout = "2006-01-02_15:04:05"
)

// NewID names a portfolio created at now.
func NewID(now time.Time, typ model.PortfolioType) string {
	return idPrefix + now.Format(idTimeLayout) + "_" + string(typ)
}

// ParseID extracts the creation time and type from a portfolio name.
func ParseID(id string) (time.Time, model.PortfolioType, error) {
	rest, ok := strings.CutPrefix(id, idPrefix)
	if !ok {
		return time.Time{}, "", fmt.Errorf("portfolio id %q: missing prefix", id)
	}
	i := strings.LastIndex(rest, "_")
	if i < 0 {
		return time.Time{}, "", fmt.Errorf("portfolio id %q: missing type", id)
	}
	created, err := time.ParseInLocation(idTimeLayout, rest[:i], time.Local)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("portfolio id %q: %w", id, err)
	}
	typ, err := model.ParsePortfolioType(rest[i+1:])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("portfolio id %q: %w", id, err)
	}
	return created, typ, nil
}

// IsID reports whether name looks like a portfolio identifier.
func IsID(name string) bool {
	_, _, err := ParseID(name)
	return err == nil
}
