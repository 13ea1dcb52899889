package strategy

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"PortfolioLedger/internal/calculator"
	"PortfolioLedger/internal/ledger"
	"PortfolioLedger/internal/model"
)

const (
	MinFeePercent = 1
	MaxFeePercent = 50
)

// Allocation is the share of each investment given to one symbol, in percent.
type Allocation struct {
	Symbol string  `json:"symbol" yaml:"symbol"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Schedule repeats a purchase at every price point between Start and End.
type Schedule struct {
	Start       time.Time
	End         time.Time
	Granularity model.Granularity
}

// Plan is a dollar-cost averaging instruction. Exactly one of Date or
// Schedule is set.
type Plan struct {
	Amount      float64
	FeePercent  float64
	Allocations []Allocation
	Date        time.Time
	Schedule    *Schedule
}

// ParseAllocations pairs colon-separated symbols with colon-separated
// weights, e.g. "AAPL:MSFT" and "60:40". Repeated symbols are merged.
func ParseAllocations(symbols, weights string) ([]Allocation, error) {
	syms := strings.Split(symbols, ":")
	ws := strings.Split(weights, ":")
	if len(syms) != len(ws) {
		return nil, fmt.Errorf("got %d symbols but %d weights", len(syms), len(ws))
	}
	allocs := make([]Allocation, len(syms))
	for i := range syms {
		w, err := strconv.ParseFloat(strings.TrimSpace(ws[i]), 64)
		if err != nil {
			return nil, fmt.Errorf("weight %q: %w", ws[i], err)
		}
		allocs[i] = Allocation{Symbol: strings.ToUpper(strings.TrimSpace(syms[i])), Weight: w}
	}
	return MergeAllocations(allocs), nil
}

// MergeAllocations sums the weights of repeated symbols, keeping first-seen order.
func MergeAllocations(allocs []Allocation) []Allocation {
	idx := make(map[string]int, len(allocs))
	out := make([]Allocation, 0, len(allocs))
	for _, a := range allocs {
		if i, ok := idx[a.Symbol]; ok {
			out[i].Weight += a.Weight
			continue
		}
		idx[a.Symbol] = len(out)
		out = append(out, a)
	}
	return out
}

// Validate returns every problem with p as named messages.
func (p Plan) Validate(dir ledger.Directory, today time.Time) model.ValidationErrors {
	errs := model.ValidationErrors{}

	if !(p.Amount > 0) {
		errs.Add("amount", "amount must be a positive number")
	}
	if p.FeePercent < MinFeePercent || p.FeePercent > MaxFeePercent {
		errs.Add("fee", fmt.Sprintf("commission fee %% must be between %d and %d", MinFeePercent, MaxFeePercent))
	}

	if len(p.Allocations) == 0 {
		errs.Add("symbols", "at least one symbol is required")
	}
	sum := 0.0
	var unknown []string
	for _, a := range p.Allocations {
		if _, ok := dir.Lookup(a.Symbol); !ok {
			unknown = append(unknown, a.Symbol)
		}
		if !(a.Weight > 0) {
			errs.Add("weights", fmt.Sprintf("weight for %s must be positive", a.Symbol))
		}
		sum += a.Weight
	}
	if len(unknown) > 0 {
		errs.Add("symbols", "unknown symbols: "+strings.Join(unknown, ", "))
	}
	if len(p.Allocations) > 0 && !calculator.Equal(sum, 100) {
		errs.Add("weights", fmt.Sprintf("weights must sum to 100, got %g", sum))
	}

	switch {
	case p.Schedule != nil && !p.Date.IsZero():
		errs.Add("dates", "give either a single date or a schedule, not both")
	case p.Schedule != nil:
		if err := model.CheckRange(p.Schedule.Start, p.Schedule.End, today); err != nil {
			errs.Add("dates", "invalid date range: "+err.Error())
		}
		if g := p.Schedule.Granularity; g < model.Daily || g > model.Yearly {
			errs.Add("frequency", "frequency must be Daily, Monthly or Yearly")
		}
	default:
		if err := model.CheckDate(p.Date, today); err != nil {
			errs.Add("dates", "invalid date: "+err.Error())
		}
	}
	return errs
}
