package model

import (
	"errors"
	"time"
)

// EarliestYear is the first calendar year accepted for trades and queries.
const EarliestYear = 2000

var (
	ErrDateTooEarly = errors.New("date must be after 1999")
	ErrDateInFuture = errors.New("date is in the future")
	ErrDateOrder    = errors.New("end date is before start date")
)

// CheckDate rejects dates before EarliestYear or after today.
func CheckDate(d, today time.Time) error {
	if d.Year() < EarliestYear {
		return ErrDateTooEarly
	}
	if Day(d).After(Day(today)) {
		return ErrDateInFuture
	}
	return nil
}

// CheckRange applies CheckDate to both ends and requires end >= start.
func CheckRange(start, end, today time.Time) error {
	if err := CheckDate(start, today); err != nil {
		return err
	}
	if err := CheckDate(end, today); err != nil {
		return err
	}
	if end.Before(start) {
		return ErrDateOrder
	}
	return nil
}
