package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outbound event types. Events are written to the outbox in the same
// database transaction as the mutation they describe and dispatched
// asynchronously to the configured webhook.
const (
	EventContractIssued     = "contract.issued"
	EventSharesPurchased    = "shares.purchased"
	EventSharesTransferred  = "shares.transferred"
	EventRevenueDistributed = "revenue.distributed"
)

// OutboxEvent is one undispatched (or dispatched) outbound fact.
type OutboxEvent struct {
	ID           string     `json:"id"`
	EventType    string     `json:"eventType"`
	AggregateID  string     `json:"aggregateId"`
	Payload      string     `json:"payload"`
	CreatedAt    time.Time  `json:"createdAt"`
	DispatchedAt *time.Time `json:"dispatchedAt,omitempty"`
	Attempts     int        `json:"attempts"`
}

// ContractIssuedEvent announces a new ownership contract.
type ContractIssuedEvent struct {
	FractionalSongID   string          `json:"fractionalSongId"`
	SongID             string          `json:"songId"`
	ArtistID           string          `json:"artistId"`
	TotalShares        int64           `json:"totalShares"`
	FanAvailableShares int64           `json:"fanAvailableShares"`
	PricePerShare      decimal.Decimal `json:"pricePerShare"`
}

// SharesPurchasedEvent announces a completed pool purchase.
type SharesPurchasedEvent struct {
	TransactionID    string          `json:"transactionId"`
	FractionalSongID string          `json:"fractionalSongId"`
	BuyerID          string          `json:"buyerId"`
	SharesQuantity   int64           `json:"sharesQuantity"`
	PricePerShare    decimal.Decimal `json:"pricePerShare"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	AvailableShares  int64           `json:"availableShares"`
}

// SharesTransferredEvent announces a completed bilateral transfer.
type SharesTransferredEvent struct {
	TransactionID    string          `json:"transactionId"`
	FractionalSongID string          `json:"fractionalSongId"`
	SellerID         string          `json:"sellerId"`
	BuyerID          string          `json:"buyerId"`
	SharesQuantity   int64           `json:"sharesQuantity"`
	PricePerShare    decimal.Decimal `json:"pricePerShare"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
}

// RevenueDistributedEvent announces a completed distribution event.
type RevenueDistributedEvent struct {
	DistributionID    string          `json:"distributionId"`
	FractionalSongID  string          `json:"fractionalSongId"`
	PeriodID          string          `json:"periodId"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	Distributable     decimal.Decimal `json:"distributable"`
	ShareholdersCount int             `json:"shareholdersCount"`
}
