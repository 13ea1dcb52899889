package recorder

import (
	"time"

	"PortfolioLedger/internal/model"
)

// TradeEvent records a manually entered transaction.
type TradeEvent struct {
	Portfolio   string
	Transaction model.Transaction
	Source      string // "API", "CLI" or "TELEGRAM"
}

// Snapshot records a portfolio's value and cost basis on a date.
type Snapshot struct {
	Portfolio string
	Date      time.Time
	Value     float64
	CostBasis float64
	Holdings  int
}

// Recorder persists an audit trail for later analysis.
type Recorder interface {
	RecordTrade(evt *TradeEvent) error
	RecordStrategyRun(run *model.StrategyRun) error
	RecordSnapshot(snap *Snapshot) error
	Close() error
}
