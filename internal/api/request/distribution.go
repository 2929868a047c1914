package request

type DistributeRevenueRequest struct {
	PeriodID       string `json:"periodId"`
	TotalRevenue   string `json:"totalRevenue"`
	PlatformFeePct string `json:"platformFeePct,omitempty"`
}
