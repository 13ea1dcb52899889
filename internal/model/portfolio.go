package model

import (
	"fmt"
	"strings"
)

// PortfolioType controls whether a portfolio accepts changes after creation.
type PortfolioType string

const (
	Flexible   PortfolioType = "Flexible"
	Inflexible PortfolioType = "Inflexible"
)

// ParsePortfolioType accepts Flexible or Inflexible in any letter case.
func ParsePortfolioType(s string) (PortfolioType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flexible":
		return Flexible, nil
	case "inflexible":
		return Inflexible, nil
	}
	return "", fmt.Errorf("unknown portfolio type %q", s)
}

// Modifiable reports whether trades may be appended after creation.
func (p PortfolioType) Modifiable() bool { return p == Flexible }
