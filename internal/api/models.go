package api

import "PortfolioLedger/internal/strategy"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failure.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// OrderRequest is one manual trade. Date defaults to today and Type to BUY.
type OrderRequest struct {
	Symbol     string  `json:"symbol" binding:"required"`
	Date       string  `json:"date"`
	Quantity   float64 `json:"quantity" binding:"required"`
	FeePercent float64 `json:"fee_percent" binding:"required"`
	Type       string  `json:"type"`
}

// CreatePortfolioRequest handles POST /api/v1/portfolios.
type CreatePortfolioRequest struct {
	Type         string         `json:"type" binding:"required"`
	Transactions []OrderRequest `json:"transactions"`
}

// DCARequest handles POST /api/v1/strategies/dca. Either Date or Start
// (with optional End and a Frequency) is set.
type DCARequest struct {
	Portfolio   string                `json:"portfolio"`
	Type        string                `json:"type"`
	Amount      float64               `json:"amount" binding:"required"`
	FeePercent  float64               `json:"fee_percent" binding:"required"`
	Allocations []strategy.Allocation `json:"allocations" binding:"required"`
	Date        string                `json:"date"`
	Start       string                `json:"start"`
	End         string                `json:"end"`
	Frequency   string                `json:"frequency"`
}

// PortfolioListResponse handles GET /api/v1/portfolios.
type PortfolioListResponse struct {
	Portfolios []string `json:"portfolios"`
}

// CreatedResponse reports the identifier of a new portfolio.
type CreatedResponse struct {
	Portfolio string `json:"portfolio"`
}

// CostBasisResponse handles GET .../cost-basis.
type CostBasisResponse struct {
	Portfolio string  `json:"portfolio"`
	Date      string  `json:"date"`
	CostBasis float64 `json:"cost_basis"`
}
