package recorder

import "PortfolioLedger/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTrade(_ *TradeEvent) error              { return nil }
func (n *NoopRecorder) RecordStrategyRun(_ *model.StrategyRun) error { return nil }
func (n *NoopRecorder) RecordSnapshot(_ *Snapshot) error             { return nil }
func (n *NoopRecorder) Close() error                                 { return nil }
