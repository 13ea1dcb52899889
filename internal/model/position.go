package model

// Position is the reduction of one symbol's transactions as of some date.
// TotalValue is always Quantity * AvgUnitPrice.
type Position struct {
	Symbol          string  `json:"symbol"`
	CompanyName     string  `json:"company_name"`
	Quantity        float64 `json:"quantity"`
	AvgUnitPrice    float64 `json:"avg_unit_price"`
	TotalValue      float64 `json:"total_value"`
	TotalCommission float64 `json:"total_commission"`
	Kind            Kind    `json:"kind"`
}
