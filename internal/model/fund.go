package model

import "time"

// PlanState tracks a recurring investment plan across runs.
type PlanState struct {
	PlanID        string    `json:"plan_id"`
	Portfolio     string    `json:"portfolio"`
	LastRunDate   string    `json:"last_run_date"`
	Runs          int       `json:"runs"`
	TotalInvested float64   `json:"total_invested"`
	TotalFees     float64   `json:"total_fees"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FundState is the persisted state of all recurring plans.
type FundState struct {
	Plans     map[string]*PlanState `json:"plans"`
	UpdatedAt time.Time             `json:"updated_at"`
}
