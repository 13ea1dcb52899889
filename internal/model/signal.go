package model

import "time"

// TriggerType indicates what started a strategy run.
type TriggerType string

const (
	TriggerManual    TriggerType = "MANUAL"
	TriggerScheduled TriggerType = "SCHEDULED"
)

// StrategyRun summarizes one application of a dollar-cost averaging plan.
type StrategyRun struct {
	ID           string        `json:"id"`
	Portfolio    string        `json:"portfolio"`
	Created      bool          `json:"created"`
	Trigger      TriggerType   `json:"trigger"`
	Amount       float64       `json:"amount"`
	FeePercent   float64       `json:"fee_percent"`
	Transactions []Transaction `json:"transactions"`
	Invested     float64       `json:"invested"`
	Fees         float64       `json:"fees"`
	RanAt        time.Time     `json:"ran_at"`
}
