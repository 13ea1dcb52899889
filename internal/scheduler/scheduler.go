// Package scheduler runs recurring investment plans and portfolio digests on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"PortfolioLedger/internal/fund"
	"PortfolioLedger/internal/model"
	"PortfolioLedger/internal/notifier"
	"PortfolioLedger/internal/recorder"
	"PortfolioLedger/internal/service"
	"PortfolioLedger/internal/strategy"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Portfolios is the part of the service the scheduler drives.
type Portfolios interface {
	Portfolios() ([]string, error)
	Summarize(name string, date time.Time) (*service.Summary, error)
	Composition(name string) (map[string]model.Position, error)
	ApplyStrategy(req service.StrategyRequest) (*model.StrategyRun, error)
}

// Plan is a recurring single-date purchase. An empty Portfolio creates a
// flexible portfolio on the first run and reuses it afterwards.
type Plan struct {
	ID          string
	Portfolio   string
	Cron        string
	Amount      float64
	FeePercent  float64
	Allocations []strategy.Allocation
}

// runCounter is implemented by recorders that can report stored strategy runs.
type runCounter interface {
	CountRuns(portfolio string) (int, error)
}

type retrier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Service  Portfolios
	Fund     *fund.Manager
	Notifier notifier.Notifier
	Recorder recorder.Recorder
	Ctx      context.Context

	plans map[string]Plan
	now   func() time.Time
	log   zerolog.Logger
}

// NewScheduler creates a new Scheduler. rec may be nil.
func NewScheduler(ctx context.Context, svc Portfolios, fm *fund.Manager, n notifier.Notifier, rec recorder.Recorder, log zerolog.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Service:  svc,
		Fund:     fm,
		Notifier: n,
		Recorder: rec,
		Ctx:      ctx,
		plans:    make(map[string]Plan),
		now:      time.Now,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// SetClock replaces the wall clock used to date plan runs.
func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }

// RegisterAll registers one task per plan and the optional digest.
func (s *Scheduler) RegisterAll(plans []Plan, digestCron string) error {
	for _, p := range plans {
		p := p
		if _, dup := s.plans[p.ID]; dup {
			return fmt.Errorf("duplicate plan %q", p.ID)
		}
		if _, err := s.Cron.AddFunc(p.Cron, func() { s.RunPlan(p.ID) }); err != nil {
			return fmt.Errorf("register plan %s: %w", p.ID, err)
		}
		s.plans[p.ID] = p
	}
	if digestCron != "" {
		if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("plans", len(s.plans)).Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunPlan applies plan id for today unless it already ran today.
func (s *Scheduler) RunPlan(id string) {
	p, ok := s.plans[id]
	if !ok {
		s.log.Error().Str("plan", id).Msg("unknown plan")
		return
	}
	today := model.Day(s.now())
	if !s.Fund.ShouldRun(id, today) {
		s.log.Info().Str("plan", id).Msg("plan already ran today, skipping")
		return
	}

	portfolio := p.Portfolio
	if portfolio == "" {
		if st, ok := s.Fund.Plan(id); ok {
			portfolio = st.Portfolio
		}
	}

	s.log.Info().Str("plan", id).Str("portfolio", portfolio).Msg("running plan")
	run, err := s.Service.ApplyStrategy(service.StrategyRequest{
		Portfolio: portfolio,
		Type:      model.Flexible,
		Trigger:   model.TriggerScheduled,
		Plan: strategy.Plan{
			Amount:      p.Amount,
			FeePercent:  p.FeePercent,
			Allocations: p.Allocations,
			Date:        today,
		},
	})
	if err != nil {
		s.log.Error().Err(err).Str("plan", id).Msg("plan run failed")
		s.trySend(fmt.Sprintf("❌ Plan %s failed: %v", id, err))
		return
	}

	s.Fund.MarkRun(id, run.Portfolio, run, today)
	s.trySend(notifier.FormatStrategyRun(id, run))
}

func (s *Scheduler) digestTask() {
	s.log.Info().Msg("running digest")
	if msg := s.Digest(); msg != "" {
		s.trySend(msg)
	}
}

// Digest summarizes every portfolio as of today and records a snapshot of each.
func (s *Scheduler) Digest() string {
	names, err := s.Service.Portfolios()
	if err != nil {
		s.log.Error().Err(err).Msg("list portfolios")
		return ""
	}
	today := model.Day(s.now())
	var parts []string
	for _, name := range names {
		sum, err := s.Service.Summarize(name, today)
		if err != nil {
			s.log.Warn().Err(err).Str("portfolio", name).Msg("summarize portfolio")
			continue
		}
		parts = append(parts, notifier.FormatSummary(sum.Portfolio, sum.Date, sum.Value, sum.CostBasis, sum.Holdings))
		if err := s.Recorder.RecordSnapshot(&recorder.Snapshot{
			Portfolio: name, Date: today, Value: sum.Value, CostBasis: sum.CostBasis, Holdings: sum.Holdings,
		}); err != nil {
			s.log.Error().Err(err).Str("portfolio", name).Msg("record snapshot")
		}
	}
	return strings.Join(parts, "\n")
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch fields[0] {
	case "/portfolios":
		names, err := s.Service.Portfolios()
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		if len(names) == 0 {
			return "No portfolios yet."
		}
		return strings.Join(names, "\n")
	case "/value":
		if len(fields) < 2 {
			return "Usage: /value <portfolio>"
		}
		sum, err := s.Service.Summarize(fields[1], model.Day(s.now()))
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatSummary(sum.Portfolio, sum.Date, sum.Value, sum.CostBasis, sum.Holdings)
	case "/composition":
		if len(fields) < 2 {
			return "Usage: /composition <portfolio>"
		}
		positions, err := s.Service.Composition(fields[1])
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatComposition(fields[1], positions)
	case "/plans":
		return s.planStatus()
	default:
		return helpText
	}
}

const helpText = "Commands:\n• /portfolios\n• /value <portfolio>\n• /composition <portfolio>\n• /plans\n• /help"

// planStatus lists plan states, followed by the recorder's run count per
// portfolio when the recorder keeps one.
func (s *Scheduler) planStatus() string {
	plans := s.Fund.Plans()
	text := notifier.FormatPlans(plans)
	c, ok := s.Recorder.(runCounter)
	if !ok {
		return text
	}
	seen := make(map[string]bool)
	for _, p := range plans {
		if p.Portfolio == "" || seen[p.Portfolio] {
			continue
		}
		seen[p.Portfolio] = true
		n, err := c.CountRuns(p.Portfolio)
		if err != nil {
			s.log.Warn().Err(err).Str("portfolio", p.Portfolio).Msg("count recorded runs")
			continue
		}
		text += fmt.Sprintf("\n%s: %d strategy runs recorded", p.Portfolio, n)
	}
	return text
}

func (s *Scheduler) trySend(text string) {
	var err error
	if r, ok := s.Notifier.(retrier); ok {
		err = r.SendWithRetry(s.Ctx, text, 3)
	} else {
		err = s.Notifier.Send(text)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
