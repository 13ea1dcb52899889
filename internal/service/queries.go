package service

import (
	"time"

	"PortfolioLedger/internal/aggregate"
	"PortfolioLedger/internal/model"
)

// MinSameMonthDays is the shortest performance range allowed inside one month.
const MinSameMonthDays = 5

// Valuation is the market value of a portfolio on a date.
type Valuation struct {
	Portfolio string                    `json:"portfolio"`
	Date      string                    `json:"date"`
	Positions map[string]model.Position `json:"positions"`
	Total     float64                   `json:"total"`
}

// Summary pairs a portfolio's value with its cost basis.
type Summary struct {
	Portfolio string  `json:"portfolio"`
	Date      string  `json:"date"`
	Value     float64 `json:"value"`
	CostBasis float64 `json:"cost_basis"`
	Holdings  int     `json:"holdings"`
}

// Composition returns the current holdings with cost-weighted average prices.
func (s *Service) Composition(name string) (map[string]model.Position, error) {
	l, err := s.snapshot(name)
	if err != nil {
		return nil, err
	}
	return aggregate.Positions(l, time.Time{}), nil
}

// Value prices the holdings of name at the closes of date.
func (s *Service) Value(name string, date time.Time) (*Valuation, error) {
	if err := model.CheckDate(date, s.today()); err != nil {
		return nil, model.ValidationErrors{"date": err.Error()}
	}
	l, err := s.snapshot(name)
	if err != nil {
		return nil, err
	}
	positions := aggregate.Valuation(l, date, s.prices)
	return &Valuation{
		Portfolio: name,
		Date:      model.FormatDate(date),
		Positions: positions,
		Total:     aggregate.TotalValue(positions),
	}, nil
}

// CostBasis returns the dollars committed to name up to date.
func (s *Service) CostBasis(name string, date time.Time) (float64, error) {
	if err := model.CheckDate(date, s.today()); err != nil {
		return 0, model.ValidationErrors{"date": err.Error()}
	}
	l, err := s.snapshot(name)
	if err != nil {
		return 0, err
	}
	return aggregate.CostBasis(l, date), nil
}

// Summarize reports value and cost basis of name on date.
func (s *Service) Summarize(name string, date time.Time) (*Summary, error) {
	v, err := s.Value(name, date)
	if err != nil {
		return nil, err
	}
	cb, err := s.CostBasis(name, date)
	if err != nil {
		return nil, err
	}
	return &Summary{Portfolio: name, Date: v.Date, Value: v.Total, CostBasis: cb, Holdings: len(v.Positions)}, nil
}

// Performance builds the display series of name between start and end.
func (s *Service) Performance(name string, start, end time.Time) (*model.PerformanceResult, error) {
	if err := model.CheckRange(start, end, s.today()); err != nil {
		return nil, model.ValidationErrors{"dates": err.Error()}
	}
	if start.Year() == end.Year() && start.Month() == end.Month() && end.Day()-start.Day() < MinSameMonthDays {
		return nil, model.ValidationErrors{"dates": "a range within one month must span at least 5 days"}
	}
	l, err := s.snapshot(name)
	if err != nil {
		return nil, err
	}
	return s.perf.Build(l, start, end)
}
