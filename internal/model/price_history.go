package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price history reasons.
const (
	PriceReasonIssued      = "issued"
	PriceReasonAdminUpdate = "admin_update"
	PriceReasonSnapshot    = "snapshot"
)

// PricePoint is one recorded share price for a song, written at issue, on
// administrative updates, and by the daily snapshot job.
type PricePoint struct {
	ID               string          `json:"id"`
	FractionalSongID string          `json:"fractionalSongId"`
	Price            decimal.Decimal `json:"price"`
	Reason           string          `json:"reason"`
	RecordedAt       time.Time       `json:"recordedAt"`
}
