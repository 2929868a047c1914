package testutil

import (
	"database/sql"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tunevest/songshare-ledger/internal/repository"
	"github.com/tunevest/songshare-ledger/internal/service"
)

func NewTestOwnershipService(t *testing.T, db *sql.DB) *service.OwnershipService {
	t.Helper()

	return service.NewOwnershipService(
		db,
		repository.NewFractionalSongRepository(db),
		repository.NewShareOwnershipRepository(db),
		repository.NewShareTransactionRepository(db),
		repository.NewPriceHistoryRepository(db),
		repository.NewOutboxRepository(db),
		service.NewSongLocks(),
	)
}

func NewTestDistributionService(t *testing.T, db *sql.DB) *service.DistributionService {
	t.Helper()

	return service.NewDistributionService(
		db,
		repository.NewFractionalSongRepository(db),
		repository.NewShareOwnershipRepository(db),
		repository.NewRevenueDistributionRepository(db),
		repository.NewOutboxRepository(db),
		service.NewSongLocks(),
		decimal.RequireFromString("0.10"),
	)
}

func NewTestCatalogService(t *testing.T, db *sql.DB) *service.CatalogService {
	t.Helper()

	return service.NewCatalogService(
		repository.NewFractionalSongRepository(db),
		repository.NewShareOwnershipRepository(db),
		repository.NewPriceHistoryRepository(db),
	)
}

func NewTestHoldingsService(t *testing.T, db *sql.DB) *service.HoldingsService {
	t.Helper()

	return service.NewHoldingsService(repository.NewShareOwnershipRepository(db))
}

func NewTestPricingService(t *testing.T, db *sql.DB) *service.PricingService {
	t.Helper()

	return service.NewPricingService(
		repository.NewFractionalSongRepository(db),
		repository.NewPriceHistoryRepository(db),
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeSongTitle generates a unique song title for testing.
//
// Example usage:
//
//	title := testutil.MakeSongTitle("Neon Skies")
//	// Returns: "Neon Skies ABC123"
func MakeSongTitle(base string) string {
	if base == "" {
		base = "Song"
	}
	return base + " " + randomAlphanumeric(6)
}

// MakePeriodID generates a unique revenue period identifier for testing.
//
// Example usage:
//
//	period := testutil.MakePeriodID()
//	// Returns: "2026-Q1-AB12CD"
func MakePeriodID() string {
	return "2026-Q1-" + randomAlphanumeric(6)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
