// Package fund keeps the persisted state of recurring investment plans.
package fund

import (
	"sort"
	"sync"
	"time"

	"PortfolioLedger/internal/model"

	"github.com/rs/zerolog"
)

// Manager tracks per-plan run history with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *model.FundState
	filePath string
	log      zerolog.Logger
}

// NewManager creates a Manager, loading or initializing state from disk.
func NewManager(filePath string, log zerolog.Logger) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}

	m := &Manager{state: state, filePath: filePath, log: log.With().Str("component", "fund").Logger()}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// ShouldRun reports whether planID has not yet run on today.
func (m *Manager) ShouldRun(planID string, today time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ps, ok := m.state.Plans[planID]
	return !ok || ps.LastRunDate != model.FormatDate(today)
}

// MarkRun records a completed run of planID against portfolio.
func (m *Manager) MarkRun(planID, portfolio string, run *model.StrategyRun, today time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ps, ok := m.state.Plans[planID]
	if !ok {
		ps = &model.PlanState{PlanID: planID}
		m.state.Plans[planID] = ps
	}
	ps.Portfolio = portfolio
	ps.LastRunDate = model.FormatDate(today)
	ps.Runs++
	if run != nil {
		ps.TotalInvested += run.Invested
		ps.TotalFees += run.Fees
	}
	ps.UpdatedAt = time.Now()

	if err := m.save(); err != nil {
		m.log.Error().Err(err).Str("plan", planID).Msg("failed to save fund state")
	}
}

// Plan returns a copy of the state of planID.
func (m *Manager) Plan(planID string) (model.PlanState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ps, ok := m.state.Plans[planID]
	if !ok {
		return model.PlanState{}, false
	}
	return *ps, true
}

// Plans returns copies of every plan state ordered by id.
func (m *Manager) Plans() []model.PlanState {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.PlanState, 0, len(m.state.Plans))
	for _, ps := range m.state.Plans {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlanID < out[j].PlanID })
	return out
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
