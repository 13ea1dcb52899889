package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by ledgers and price series.
const DateLayout = "2006-01-02"

// ParseDate parses a yyyy-mm-dd date as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t as yyyy-mm-dd.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PricePoint is one closing price of a symbol.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// Granularity is the sampling resolution of a price or performance series.
type Granularity int

const (
	Daily Granularity = iota
	Monthly
	Yearly
)

func (g Granularity) String() string {
	switch g {
	case Daily:
		return "Daily"
	case Monthly:
		return "Monthly"
	case Yearly:
		return "Yearly"
	default:
		return fmt.Sprintf("Granularity(%d)", int(g))
	}
}

// ParseGranularity accepts Daily, Monthly or Yearly in any letter case.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, nil
	case "monthly":
		return Monthly, nil
	case "yearly":
		return Yearly, nil
	}
	return 0, fmt.Errorf("unknown granularity %q", s)
}
