package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TransactionTypePurchase = "purchase"
	TransactionTypeTransfer = "transfer"
)

// Transaction statuses. A transaction is written pending and flipped to
// completed in the same database transaction as the pool and ownership
// mutations; failed records are appended after rollback for audit.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// ShareTransaction is one append-only ledger record of shares changing hands.
// For purchases the seller is the pool (SellerID empty); for transfers both
// parties are users. TotalAmount is exactly SharesQuantity * PricePerShare.
type ShareTransaction struct {
	ID               string          `json:"id"`
	IdempotencyKey   string          `json:"idempotencyKey,omitempty"`
	Type             string          `json:"type"`
	FractionalSongID string          `json:"fractionalSongId"`
	BuyerID          string          `json:"buyerId"`
	SellerID         string          `json:"sellerId,omitempty"`
	SharesQuantity   int64           `json:"sharesQuantity"`
	PricePerShare    decimal.Decimal `json:"pricePerShare"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	Status           string          `json:"status"`
	FailureReason    string          `json:"failureReason,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	CompletedAt      *time.Time      `json:"completedAt,omitempty"`
}
