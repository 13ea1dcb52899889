package scheduler

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"PortfolioLedger/internal/collector"
	"PortfolioLedger/internal/directory"
	"PortfolioLedger/internal/fund"
	"PortfolioLedger/internal/logging"
	"PortfolioLedger/internal/model"
	"PortfolioLedger/internal/recorder"
	"PortfolioLedger/internal/service"
	"PortfolioLedger/internal/store"
	"PortfolioLedger/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureNotifier struct{ sent []string }

func (c *captureNotifier) Send(text string) error {
	c.sent = append(c.sent, text)
	return nil
}

type captureRecorder struct {
	recorder.NoopRecorder
	snapshots []recorder.Snapshot
	runs      map[string]int
}

func (c *captureRecorder) RecordStrategyRun(run *model.StrategyRun) error {
	if c.runs == nil {
		c.runs = make(map[string]int)
	}
	c.runs[run.Portfolio]++
	return nil
}

func (c *captureRecorder) CountRuns(portfolio string) (int, error) {
	return c.runs[portfolio], nil
}

func (c *captureRecorder) RecordSnapshot(s *recorder.Snapshot) error {
	c.snapshots = append(c.snapshots, *s)
	return nil
}

type fixture struct {
	sched *Scheduler
	note  *captureNotifier
	rec   *captureRecorder
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := directory.New(map[string]string{"AAPL": "Apple Inc", "MSFT": "Microsoft Corporation"})
	repo, err := store.NewFileStore(filepath.Join(t.TempDir(), "portfolios"), dir)
	require.NoError(t, err)
	feed := collector.NewFeed(&collector.MockFetcher{
		Daily: map[string]collector.Series{
			"AAPL": {"2022-03-01": 160, "2022-03-02": 165},
			"MSFT": {"2022-03-01": 300, "2022-03-02": 310},
		},
	}, nil, logging.NewSilent())

	f := &fixture{note: &captureNotifier{}, rec: &captureRecorder{}, clock: time.Date(2022, 3, 2, 9, 0, 0, 0, time.UTC)}
	svc := service.New(repo, dir, feed, f.rec, logging.NewSilent())
	svc.SetClock(func() time.Time { return f.clock })

	fm, err := fund.NewManager(filepath.Join(t.TempDir(), "fund.json"), logging.NewSilent())
	require.NoError(t, err)

	f.sched = NewScheduler(context.Background(), svc, fm, f.note, f.rec, logging.NewSilent())
	f.sched.SetClock(func() time.Time { return f.clock })
	require.NoError(t, f.sched.RegisterAll([]Plan{{
		ID:          "weekly",
		Cron:        "0 0 9 * * 3",
		Amount:      1000,
		FeePercent:  1,
		Allocations: []strategy.Allocation{{Symbol: "AAPL", Weight: 50}, {Symbol: "MSFT", Weight: 50}},
	}}, "0 0 18 * * *"))
	return f
}

func TestRunPlanOncePerDay(t *testing.T) {
	f := newFixture(t)

	f.sched.RunPlan("weekly")
	require.Len(t, f.note.sent, 1)
	assert.Contains(t, f.note.sent[0], "Plan weekly")
	assert.Contains(t, f.note.sent[0], "Invested: $990.00")

	st, ok := f.sched.Fund.Plan("weekly")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(st.Portfolio, "_Flexible"))
	assert.Equal(t, "2022-03-02", st.LastRunDate)

	f.sched.RunPlan("weekly")
	assert.Len(t, f.note.sent, 1, "second run on the same day is skipped")

	f.clock = f.clock.AddDate(0, 0, 7)
	f.sched.RunPlan("weekly")
	require.Len(t, f.note.sent, 2)

	names, err := f.sched.Service.Portfolios()
	require.NoError(t, err)
	assert.Equal(t, []string{st.Portfolio}, names, "later runs append to the same portfolio")

	st, _ = f.sched.Fund.Plan("weekly")
	assert.Equal(t, 2, st.Runs)
	assert.InDelta(t, 1980.0, st.TotalInvested, 1e-9)
}

func TestRegisterAllRejectsBadCron(t *testing.T) {
	f := newFixture(t)
	err := f.sched.RegisterAll([]Plan{{ID: "broken", Cron: "whenever"}}, "")
	assert.Error(t, err)
	err = f.sched.RegisterAll([]Plan{{ID: "weekly", Cron: "0 0 9 * * 3"}}, "")
	assert.Error(t, err)
}

func TestDigestRecordsSnapshots(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.sched.Digest())

	f.sched.RunPlan("weekly")
	msg := f.sched.Digest()
	assert.Contains(t, msg, "Cost basis: $1,000.00")
	require.Len(t, f.rec.snapshots, 1)
	assert.Equal(t, 2, f.rec.snapshots[0].Holdings)
	assert.Equal(t, model.Day(f.clock), f.rec.snapshots[0].Date)
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "No portfolios yet.", f.sched.HandleCommand("/portfolios"))
	assert.Equal(t, "No plan has run yet.", f.sched.HandleCommand("/plans"))
	assert.Contains(t, f.sched.HandleCommand("/help"), "/value <portfolio>")
	assert.Contains(t, f.sched.HandleCommand("what"), "/portfolios")
	assert.Equal(t, "Usage: /value <portfolio>", f.sched.HandleCommand("/value"))
	assert.Equal(t, "Usage: /composition <portfolio>", f.sched.HandleCommand("/composition"))
	assert.Contains(t, f.sched.HandleCommand("/help"), "/composition <portfolio>")

	f.sched.RunPlan("weekly")
	st, _ := f.sched.Fund.Plan("weekly")
	assert.Equal(t, st.Portfolio, f.sched.HandleCommand("/portfolios"))
	assert.Contains(t, f.sched.HandleCommand("/value "+st.Portfolio), "Holdings: 2")
	assert.Contains(t, f.sched.HandleCommand("/plans"), "weekly")
	assert.Contains(t, f.sched.HandleCommand("/plans"), st.Portfolio+": 1 strategy runs recorded")
	assert.Contains(t, f.sched.HandleCommand("/value Portfolio_nope"), "❌")

	comp := f.sched.HandleCommand("/composition " + st.Portfolio)
	assert.Contains(t, comp, "<b>"+st.Portfolio+"</b>")
	assert.Contains(t, comp, "  AAPL 3 @ $165.00")
	assert.Contains(t, comp, "  MSFT 1.59 @ $")
	assert.Contains(t, f.sched.HandleCommand("/composition Portfolio_nope"), "❌")
}
