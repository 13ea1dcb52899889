package fund

import (
	"path/filepath"
	"testing"
	"time"

	"PortfolioLedger/internal/logging"
	"PortfolioLedger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerRunsOncePerDay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "fund.json")
	m, err := NewManager(path, logging.NewSilent())
	require.NoError(t, err)

	today := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, m.ShouldRun("weekly", today))

	m.MarkRun("weekly", "Portfolio_2022-01-01_10:00:00_Flexible", &model.StrategyRun{Invested: 90, Fees: 10}, today)
	assert.False(t, m.ShouldRun("weekly", today))
	assert.True(t, m.ShouldRun("weekly", today.AddDate(0, 0, 1)))
	assert.True(t, m.ShouldRun("other", today))

	m.MarkRun("weekly", "Portfolio_2022-01-01_10:00:00_Flexible", &model.StrategyRun{Invested: 45, Fees: 5}, today.AddDate(0, 0, 7))
	ps, ok := m.Plan("weekly")
	require.True(t, ok)
	assert.Equal(t, 2, ps.Runs)
	assert.Equal(t, "2022-03-08", ps.LastRunDate)
	assert.InDelta(t, 135.0, ps.TotalInvested, 1e-9)
	assert.InDelta(t, 15.0, ps.TotalFees, 1e-9)
}

func TestStatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fund.json")
	m, err := NewManager(path, logging.NewSilent())
	require.NoError(t, err)
	today := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	m.MarkRun("b", "P2", nil, today)
	m.MarkRun("a", "P1", nil, today)

	reloaded, err := NewManager(path, logging.NewSilent())
	require.NoError(t, err)
	plans := reloaded.Plans()
	require.Len(t, plans, 2)
	assert.Equal(t, "a", plans[0].PlanID)
	assert.Equal(t, "P2", plans[1].Portfolio)
	assert.False(t, reloaded.ShouldRun("a", today))
}

func TestLoadStateMissingFile(t *testing.T) {
	state, err := LoadState(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.NotNil(t, state.Plans)
	assert.Empty(t, state.Plans)
}
