package model

// PerformancePoint is one bar of a performance chart. Value starts as a dollar
// amount and is replaced by a rendering level; Amount keeps the dollar figure.
type PerformancePoint struct {
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Amount float64 `json:"amount"`
}

// PerformanceResult is a down-sampled, scaled portfolio value series.
type PerformanceResult struct {
	PortfolioName string             `json:"portfolio_name"`
	Granularity   string             `json:"granularity"`
	Points        []PerformancePoint `json:"points"`
	ScaleFactor   float64            `json:"scale_factor"`
}
