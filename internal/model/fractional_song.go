package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale status values derived from the share pool. There is no status column;
// the state follows available_shares.
const (
	SaleStatusCreated       = "created"
	SaleStatusPartiallySold = "partially_sold"
	SaleStatusFullySold     = "fully_sold"
)

// MaxTotalShares caps the size of a share pool at issue time.
const MaxTotalShares = 10000

// FractionalSong is the ownership contract for one song: the fixed share
// split between artist and fans, the live fan pool, and the current price.
type FractionalSong struct {
	ID                      string          `json:"id"`
	SongID                  string          `json:"songId"`
	ArtistID                string          `json:"artistId"`
	Title                   string          `json:"title"`
	TotalShares             int64           `json:"totalShares"`
	ArtistReservedShares    int64           `json:"artistReservedShares"`
	FanAvailableShares      int64           `json:"fanAvailableShares"`
	AvailableShares         int64           `json:"availableShares"`
	CurrentPricePerShare    decimal.Decimal `json:"currentPricePerShare"`
	ArtistRevenuePercentage decimal.Decimal `json:"artistRevenuePercentage"`
	CreatedAt               time.Time       `json:"createdAt"`
	UpdatedAt               time.Time       `json:"updatedAt"`
}

// SoldShares is the number of fan shares currently held by users.
func (f *FractionalSong) SoldShares() int64 {
	return f.FanAvailableShares - f.AvailableShares
}

// SaleStatus reports where the contract sits in its lifecycle.
func (f *FractionalSong) SaleStatus() string {
	switch {
	case f.AvailableShares == 0:
		return SaleStatusFullySold
	case f.AvailableShares == f.FanAvailableShares:
		return SaleStatusCreated
	default:
		return SaleStatusPartiallySold
	}
}

// MarketValue is the contract's full pool valued at the current price.
func (f *FractionalSong) MarketValue() decimal.Decimal {
	return f.CurrentPricePerShare.Mul(decimal.NewFromInt(f.TotalShares))
}

// ContractDetail is a contract with its current holder breakdown, returned by
// the single-contract endpoint.
type ContractDetail struct {
	FractionalSong
	SaleStatus string           `json:"saleStatus"`
	SoldShares int64            `json:"soldShares"`
	Holders    []ShareOwnership `json:"holders"`
}

// CatalogEntry is a contract row in the paginated catalog listing.
type CatalogEntry struct {
	FractionalSong
	SaleStatus   string          `json:"saleStatus"`
	SoldShares   int64           `json:"soldShares"`
	HoldersCount int             `json:"holdersCount"`
	MarketValue  decimal.Decimal `json:"marketValue"`
}

// CatalogPage is one page of the contract catalog.
type CatalogPage struct {
	Entries  []CatalogEntry `json:"entries"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	Total    int            `json:"total"`
}
