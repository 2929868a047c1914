package request

type IssueContractRequest struct {
	SongID                  string `json:"songId"`
	ArtistID                string `json:"artistId"`
	Title                   string `json:"title"`
	TotalShares             int64  `json:"totalShares"`
	ArtistReservedShares    int64  `json:"artistReservedShares"`
	PricePerShare           string `json:"pricePerShare"`
	ArtistRevenuePercentage string `json:"artistRevenuePercentage"`
}

type UpdatePriceRequest struct {
	PricePerShare string `json:"pricePerShare"`
}
