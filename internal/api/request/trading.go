package request

type PurchaseSharesRequest struct {
	BuyerID          string `json:"buyerId"`
	SharesQuantity   int64  `json:"sharesQuantity"`
	MaxPricePerShare string `json:"maxPricePerShare"`
	IdempotencyKey   string `json:"idempotencyKey,omitempty"`
}

type TransferSharesRequest struct {
	SellerID       string `json:"sellerId"`
	BuyerID        string `json:"buyerId"`
	SharesQuantity int64  `json:"sharesQuantity"`
	PricePerShare  string `json:"pricePerShare"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}
