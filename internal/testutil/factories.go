package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tunevest/songshare-ledger/internal/model"
)

// ContractBuilder provides a fluent interface for creating test contracts.
//
// Example usage:
//
//	// Simple creation with defaults
//	song := testutil.NewContract().Build(t, db)
//
//	// Customized contract
//	song := testutil.NewContract().
//	    WithTitle("Midnight Drive").
//	    WithShares(1000, 250).
//	    WithPrice("12.50").
//	    Build(t, db)
type ContractBuilder struct {
	ID                      string
	SongID                  string
	ArtistID                string
	Title                   string
	TotalShares             int64
	ArtistReservedShares    int64
	AvailableShares         int64
	availableSet            bool
	CurrentPricePerShare    decimal.Decimal
	ArtistRevenuePercentage decimal.Decimal
	CreatedAt               time.Time
}

// NewContract creates a ContractBuilder with sensible defaults.
func NewContract() *ContractBuilder {
	return &ContractBuilder{
		ID:                      MakeID(),
		SongID:                  MakeID(),
		ArtistID:                MakeID(),
		Title:                   MakeSongTitle("Test Song"),
		TotalShares:             1000,
		ArtistReservedShares:    200,
		CurrentPricePerShare:    decimal.RequireFromString("10.00"),
		ArtistRevenuePercentage: decimal.RequireFromString("0.50"),
		CreatedAt:               time.Now().UTC(),
	}
}

// WithID sets a custom contract ID.
func (b *ContractBuilder) WithID(id string) *ContractBuilder {
	b.ID = id
	return b
}

// WithSongID sets a custom song ID.
func (b *ContractBuilder) WithSongID(songID string) *ContractBuilder {
	b.SongID = songID
	return b
}

// WithArtistID sets a custom artist ID.
func (b *ContractBuilder) WithArtistID(artistID string) *ContractBuilder {
	b.ArtistID = artistID
	return b
}

// WithTitle sets a custom title.
func (b *ContractBuilder) WithTitle(title string) *ContractBuilder {
	b.Title = title
	return b
}

// WithShares sets the total share pool and the artist's reserved slice.
func (b *ContractBuilder) WithShares(total, artistReserved int64) *ContractBuilder {
	b.TotalShares = total
	b.ArtistReservedShares = artistReserved
	return b
}

// WithAvailableShares sets how many fan shares are still unsold.
// Defaults to the full fan pool when not set.
func (b *ContractBuilder) WithAvailableShares(available int64) *ContractBuilder {
	b.AvailableShares = available
	b.availableSet = true
	return b
}

// WithPrice sets the current price per share from a decimal string.
func (b *ContractBuilder) WithPrice(price string) *ContractBuilder {
	b.CurrentPricePerShare = decimal.RequireFromString(price)
	return b
}

// WithRevenuePercentage sets the artist's contractual revenue cut from a decimal string.
func (b *ContractBuilder) WithRevenuePercentage(pct string) *ContractBuilder {
	b.ArtistRevenuePercentage = decimal.RequireFromString(pct)
	return b
}

// Build creates the contract in the database and returns it.
func (b *ContractBuilder) Build(t *testing.T, db *sql.DB) model.FractionalSong {
	t.Helper()

	fanAvailable := b.TotalShares - b.ArtistReservedShares
	available := fanAvailable
	if b.availableSet {
		available = b.AvailableShares
	}

	query := `
		INSERT INTO fractional_songs (
			id, song_id, artist_id, title,
			total_shares, artist_reserved_shares, fan_available_shares, available_shares,
			current_price_per_share, artist_revenue_percentage, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID, b.SongID, b.ArtistID, b.Title,
		b.TotalShares, b.ArtistReservedShares, fanAvailable, available,
		b.CurrentPricePerShare, b.ArtistRevenuePercentage, b.CreatedAt, b.CreatedAt,
	)
	if err != nil {
		t.Fatalf("Failed to create test contract: %v", err)
	}

	return model.FractionalSong{
		ID:                      b.ID,
		SongID:                  b.SongID,
		ArtistID:                b.ArtistID,
		Title:                   b.Title,
		TotalShares:             b.TotalShares,
		ArtistReservedShares:    b.ArtistReservedShares,
		FanAvailableShares:      fanAvailable,
		AvailableShares:         available,
		CurrentPricePerShare:    b.CurrentPricePerShare,
		ArtistRevenuePercentage: b.ArtistRevenuePercentage,
		CreatedAt:               b.CreatedAt,
		UpdatedAt:               b.CreatedAt,
	}
}

// Convenience functions

// CreateContract creates a contract with the given title and default values.
//
// Example usage:
//
//	song := testutil.CreateContract(t, db, "Golden Hour")
func CreateContract(t *testing.T, db *sql.DB, title string) model.FractionalSong {
	t.Helper()
	return NewContract().WithTitle(title).Build(t, db)
}

// OwnershipBuilder provides a fluent interface for creating test shareholdings.
//
// Example usage:
//
//	ownership := testutil.NewOwnership(song.ID).
//	    WithShares(150).
//	    WithPurchasePrice("10.00").
//	    Build(t, db)
type OwnershipBuilder struct {
	ID               string
	FractionalSongID string
	UserID           string
	SharesOwned      int64
	PurchasePrice    decimal.Decimal
	TotalEarnings    decimal.Decimal
	PurchaseDate     time.Time
	LastEarningDate  *time.Time
}

// NewOwnership creates an OwnershipBuilder for the given contract with sensible defaults.
func NewOwnership(fractionalSongID string) *OwnershipBuilder {
	return &OwnershipBuilder{
		ID:               MakeID(),
		FractionalSongID: fractionalSongID,
		UserID:           MakeID(),
		SharesOwned:      100,
		PurchasePrice:    decimal.RequireFromString("10.00"),
		TotalEarnings:    decimal.Zero,
		PurchaseDate:     time.Now().UTC(),
	}
}

// WithUserID sets a custom holder ID.
func (b *OwnershipBuilder) WithUserID(userID string) *OwnershipBuilder {
	b.UserID = userID
	return b
}

// WithShares sets the held share count.
func (b *OwnershipBuilder) WithShares(shares int64) *OwnershipBuilder {
	b.SharesOwned = shares
	return b
}

// WithPurchasePrice sets the average purchase price from a decimal string.
func (b *OwnershipBuilder) WithPurchasePrice(price string) *OwnershipBuilder {
	b.PurchasePrice = decimal.RequireFromString(price)
	return b
}

// WithTotalEarnings sets the accumulated earnings from a decimal string.
func (b *OwnershipBuilder) WithTotalEarnings(earnings string) *OwnershipBuilder {
	b.TotalEarnings = decimal.RequireFromString(earnings)
	return b
}

// Build creates the shareholding in the database and returns it.
func (b *OwnershipBuilder) Build(t *testing.T, db *sql.DB) model.ShareOwnership {
	t.Helper()

	query := `
		INSERT INTO share_ownerships (
			id, fractional_song_id, user_id, shares_owned,
			purchase_price, total_earnings, purchase_date, last_earning_date
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var lastEarning any
	if b.LastEarningDate != nil {
		lastEarning = *b.LastEarningDate
	}

	_, err := db.Exec(query,
		b.ID, b.FractionalSongID, b.UserID, b.SharesOwned,
		b.PurchasePrice, b.TotalEarnings, b.PurchaseDate, lastEarning,
	)
	if err != nil {
		t.Fatalf("Failed to create test ownership: %v", err)
	}

	return model.ShareOwnership{
		ID:               b.ID,
		FractionalSongID: b.FractionalSongID,
		UserID:           b.UserID,
		SharesOwned:      b.SharesOwned,
		PurchasePrice:    b.PurchasePrice,
		TotalEarnings:    b.TotalEarnings,
		PurchaseDate:     b.PurchaseDate,
		LastEarningDate:  b.LastEarningDate,
	}
}

// CreateOwnership creates a shareholding for the given contract, holder, and share count.
//
// Example usage:
//
//	ownership := testutil.CreateOwnership(t, db, song.ID, userID, 150)
func CreateOwnership(t *testing.T, db *sql.DB, fractionalSongID, userID string, shares int64) model.ShareOwnership {
	t.Helper()
	return NewOwnership(fractionalSongID).WithUserID(userID).WithShares(shares).Build(t, db)
}

// TransactionBuilder provides a fluent interface for creating test share transactions.
//
// Example usage:
//
//	transaction := testutil.NewTransaction(song.ID).
//	    WithBuyerID(buyerID).
//	    WithQuantity(50).
//	    Completed().
//	    Build(t, db)
type TransactionBuilder struct {
	ID             string
	IdempotencyKey string
	Type           string
	SongID         string
	BuyerID        string
	SellerID       string
	SharesQuantity int64
	PricePerShare  decimal.Decimal
	Status         string
	FailureReason  string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// NewTransaction creates a TransactionBuilder for the given contract with sensible defaults.
func NewTransaction(fractionalSongID string) *TransactionBuilder {
	return &TransactionBuilder{
		ID:             MakeID(),
		Type:           model.TransactionTypePurchase,
		SongID:         fractionalSongID,
		BuyerID:        MakeID(),
		SharesQuantity: 50,
		PricePerShare:  decimal.RequireFromString("10.00"),
		Status:         model.TransactionStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
}

// WithIdempotencyKey sets the client idempotency key.
func (b *TransactionBuilder) WithIdempotencyKey(key string) *TransactionBuilder {
	b.IdempotencyKey = key
	return b
}

// WithBuyerID sets the buyer.
func (b *TransactionBuilder) WithBuyerID(buyerID string) *TransactionBuilder {
	b.BuyerID = buyerID
	return b
}

// WithSellerID sets the seller and marks the transaction as a transfer.
func (b *TransactionBuilder) WithSellerID(sellerID string) *TransactionBuilder {
	b.SellerID = sellerID
	b.Type = model.TransactionTypeTransfer
	return b
}

// WithQuantity sets the traded share count.
func (b *TransactionBuilder) WithQuantity(quantity int64) *TransactionBuilder {
	b.SharesQuantity = quantity
	return b
}

// WithPrice sets the executed price per share from a decimal string.
func (b *TransactionBuilder) WithPrice(price string) *TransactionBuilder {
	b.PricePerShare = decimal.RequireFromString(price)
	return b
}

// Completed marks the transaction as completed.
func (b *TransactionBuilder) Completed() *TransactionBuilder {
	b.Status = model.TransactionStatusCompleted
	now := time.Now().UTC()
	b.CompletedAt = &now
	return b
}

// Failed marks the transaction as failed with the given reason.
func (b *TransactionBuilder) Failed(reason string) *TransactionBuilder {
	b.Status = model.TransactionStatusFailed
	b.FailureReason = reason
	return b
}

// Build creates the transaction in the database and returns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.ShareTransaction {
	t.Helper()

	query := `
		INSERT INTO share_transactions (
			id, idempotency_key, transaction_type, fractional_song_id,
			buyer_id, seller_id, shares_quantity, price_per_share,
			total_amount, status, failure_reason, created_at, completed_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	totalAmount := b.PricePerShare.Mul(decimal.NewFromInt(b.SharesQuantity))

	var idempotencyKey, sellerID, failureReason, completedAt any
	if b.IdempotencyKey != "" {
		idempotencyKey = b.IdempotencyKey
	}
	if b.SellerID != "" {
		sellerID = b.SellerID
	}
	if b.FailureReason != "" {
		failureReason = b.FailureReason
	}
	if b.CompletedAt != nil {
		completedAt = *b.CompletedAt
	}

	_, err := db.Exec(query,
		b.ID, idempotencyKey, b.Type, b.SongID,
		b.BuyerID, sellerID, b.SharesQuantity, b.PricePerShare,
		totalAmount, b.Status, failureReason, b.CreatedAt, completedAt,
	)
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return model.ShareTransaction{
		ID:               b.ID,
		IdempotencyKey:   b.IdempotencyKey,
		Type:             b.Type,
		FractionalSongID: b.SongID,
		BuyerID:          b.BuyerID,
		SellerID:         b.SellerID,
		SharesQuantity:   b.SharesQuantity,
		PricePerShare:    b.PricePerShare,
		TotalAmount:      totalAmount,
		Status:           b.Status,
		FailureReason:    b.FailureReason,
		CreatedAt:        b.CreatedAt,
		CompletedAt:      b.CompletedAt,
	}
}
