package service

import (
	"fmt"
	"time"

	"PortfolioLedger/internal/ledger"
	"PortfolioLedger/internal/model"
	"PortfolioLedger/internal/strategy"

	"github.com/google/uuid"
)

// StrategyRequest applies a plan to Portfolio, or to a new portfolio of Type
// when Portfolio is empty.
type StrategyRequest struct {
	Portfolio string
	Type      model.PortfolioType
	Plan      strategy.Plan
	Trigger   model.TriggerType
}

// ApplyStrategy generates the plan's purchases and persists them.
func (s *Service) ApplyStrategy(req StrategyRequest) (*model.StrategyRun, error) {
	plan := req.Plan
	if plan.Schedule != nil && plan.Schedule.End.IsZero() {
		sched := *plan.Schedule
		sched.End = s.today()
		plan.Schedule = &sched
	}

	errs := plan.Validate(s.dir, s.today())
	if req.Portfolio == "" && req.Type != model.Flexible && req.Type != model.Inflexible {
		errs.Add("type", "portfolio type must be Flexible or Inflexible")
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if req.Portfolio == "" {
		return s.runStrategy(req, plan, nil)
	}
	if err := s.checkModifiable(req.Portfolio); err != nil {
		return nil, err
	}
	defer s.lock(req.Portfolio)()
	l, err := s.repo.Load(req.Portfolio)
	if err != nil {
		return nil, err
	}
	return s.runStrategy(req, plan, l)
}

func (s *Service) runStrategy(req StrategyRequest, plan strategy.Plan, l *ledger.Ledger) (*model.StrategyRun, error) {
	res, err := strategy.Generate(plan, s.dir, s.prices)
	if err != nil {
		return nil, err
	}
	if len(res.Transactions) == 0 {
		return nil, model.ValidationErrors{"prices": "no market prices available for the requested dates"}
	}
	if len(res.Skipped) > 0 {
		s.log.Warn().Strs("skipped", res.Skipped).Msg("purchases skipped for missing prices")
	}

	name := req.Portfolio
	if l == nil {
		if name, err = s.repo.Create(req.Type, res.Transactions); err != nil {
			return nil, fmt.Errorf("create portfolio: %w", err)
		}
	} else if err := s.repo.Append(name, res.Transactions); err != nil {
		return nil, fmt.Errorf("append strategy: %w", err)
	}

	trigger := req.Trigger
	if trigger == "" {
		trigger = model.TriggerManual
	}
	run := &model.StrategyRun{
		ID:           uuid.NewString(),
		Portfolio:    name,
		Created:      l == nil,
		Trigger:      trigger,
		Amount:       plan.Amount,
		FeePercent:   plan.FeePercent,
		Transactions: res.Transactions,
		Invested:     res.Invested,
		Fees:         res.Fees,
		RanAt:        time.Now(),
	}
	if err := s.rec.RecordStrategyRun(run); err != nil {
		s.log.Error().Err(err).Str("portfolio", name).Msg("record strategy run")
	}
	s.log.Info().Str("portfolio", name).Str("run", run.ID).Int("transactions", len(run.Transactions)).
		Float64("invested", run.Invested).Msg("strategy applied")
	return run, nil
}
