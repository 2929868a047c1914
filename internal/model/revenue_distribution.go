package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payout statuses. Settlement itself happens in an external system; the
// ledger tracks whether a payout has been handed over.
const (
	PayoutStatusPendingSettlement = "pending_settlement"
	PayoutStatusSettled           = "settled"
)

// RevenueDistribution is one completed distribution event for a song and
// revenue period. Distributable = TotalRevenue * (1 - PlatformFeePct),
// floored to cents, and the payout rows for the event sum to it exactly.
type RevenueDistribution struct {
	ID                string          `json:"id"`
	FractionalSongID  string          `json:"fractionalSongId"`
	PeriodID          string          `json:"periodId"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	PlatformFeePct    decimal.Decimal `json:"platformFeePct"`
	Distributable     decimal.Decimal `json:"distributable"`
	ShareholdersCount int             `json:"shareholdersCount"`
	DistributionDate  time.Time       `json:"distributionDate"`
}

// IndividualPayout is one recipient's slice of a distribution event.
// SharesOwnedAtTime and OwnershipPercentage are snapshots taken when the
// event ran; later trades do not rewrite history. The artist residual row
// carries the revenue claim of reserved plus unsold shares.
type IndividualPayout struct {
	ID                    string          `json:"id"`
	RevenueDistributionID string          `json:"revenueDistributionId"`
	UserID                string          `json:"userId"`
	SharesOwnedAtTime     int64           `json:"sharesOwnedAtTime"`
	OwnershipPercentage   decimal.Decimal `json:"ownershipPercentage"`
	PayoutAmount          decimal.Decimal `json:"payoutAmount"`
	IsArtistResidual      bool            `json:"isArtistResidual"`
	Status                string          `json:"status"`
}

// DistributionResult bundles a distribution event with its payouts, returned
// by the distribute operation.
type DistributionResult struct {
	Distribution RevenueDistribution `json:"distribution"`
	Payouts      []IndividualPayout  `json:"payouts"`
}
