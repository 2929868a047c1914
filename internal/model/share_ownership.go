package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShareOwnership is one user's holding in one song. PurchasePrice is the
// quantity-weighted average price per share across all acquisitions;
// TotalEarnings accumulates distributed revenue. A holding with zero shares
// is deleted, never stored.
type ShareOwnership struct {
	ID               string          `json:"id"`
	FractionalSongID string          `json:"fractionalSongId"`
	UserID           string          `json:"userId"`
	SharesOwned      int64           `json:"sharesOwned"`
	PurchasePrice    decimal.Decimal `json:"purchasePrice"`
	TotalEarnings    decimal.Decimal `json:"totalEarnings"`
	PurchaseDate     time.Time       `json:"purchaseDate"`
	LastEarningDate  *time.Time      `json:"lastEarningDate,omitempty"`
}

// Holding is a ShareOwnership enriched with contract data for the
// cross-song holdings view.
type Holding struct {
	ShareOwnership
	SongID               string          `json:"songId"`
	Title                string          `json:"title"`
	ArtistID             string          `json:"artistId"`
	CurrentPricePerShare decimal.Decimal `json:"currentPricePerShare"`
	CurrentValue         decimal.Decimal `json:"currentValue"`
	FanAvailableShares   int64           `json:"fanAvailableShares"`
}

// UserEarnings summarises what one user has earned from one song.
type UserEarnings struct {
	UserID           string          `json:"userId"`
	FractionalSongID string          `json:"fractionalSongId"`
	SongID           string          `json:"songId"`
	SharesOwned      int64           `json:"sharesOwned"`
	TotalEarnings    decimal.Decimal `json:"totalEarnings"`
	PayoutCount      int             `json:"payoutCount"`
	LastEarningDate  *time.Time      `json:"lastEarningDate,omitempty"`
}
