package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/model"
	"github.com/tunevest/songshare-ledger/internal/service"
)

func testAggregate(t *testing.T, totalShares, artistReserved int64, price string) *service.OwnershipAggregate {
	t.Helper()

	sharePrice, err := model.ParseSharePrice(price)
	if err != nil {
		t.Fatalf("ParseSharePrice() returned unexpected error: %v", err)
	}
	revenuePct, err := model.ParseOwnershipPercentage("0.50")
	if err != nil {
		t.Fatalf("ParseOwnershipPercentage() returned unexpected error: %v", err)
	}

	song, err := service.NewContract(
		"11111111-1111-1111-1111-111111111111",
		"22222222-2222-2222-2222-222222222222",
		"Test Song",
		totalShares, artistReserved,
		sharePrice, revenuePct,
		time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("NewContract() returned unexpected error: %v", err)
	}

	return &service.OwnershipAggregate{Song: song}
}

func mustSharePrice(t *testing.T, raw string) model.SharePrice {
	t.Helper()

	price, err := model.ParseSharePrice(raw)
	if err != nil {
		t.Fatalf("ParseSharePrice(%q) returned unexpected error: %v", raw, err)
	}
	return price
}

// TestNewContract tests contract issuance rules.
//
// WHY: The share split fixed at issue time is the foundation every later
// invariant builds on. A contract with a broken split could never conserve
// its pool.
func TestNewContract(t *testing.T) {
	t.Run("fan pool starts fully available", func(t *testing.T) {
		agg := testAggregate(t, 1000, 200, "10.00")

		if agg.Song.FanAvailableShares != 800 {
			t.Errorf("Expected 800 fan shares, got %d", agg.Song.FanAvailableShares)
		}
		if agg.Song.AvailableShares != 800 {
			t.Errorf("Expected 800 available shares, got %d", agg.Song.AvailableShares)
		}
		if agg.Song.SaleStatus() != model.SaleStatusCreated {
			t.Errorf("Expected sale status %q, got %q", model.SaleStatusCreated, agg.Song.SaleStatus())
		}
	})

	t.Run("rejects reservation that leaves no fan shares", func(t *testing.T) {
		price := mustSharePrice(t, "10.00")
		pct, _ := model.ParseOwnershipPercentage("0.50")

		_, err := service.NewContract("s", "a", "Title", 1000, 1000, price, pct, time.Now().UTC())

		if !errors.Is(err, apperrors.ErrBusinessRuleViolation) {
			t.Errorf("Expected ErrBusinessRuleViolation, got %v", err)
		}
	})

	t.Run("rejects negative reservation", func(t *testing.T) {
		price := mustSharePrice(t, "10.00")
		pct, _ := model.ParseOwnershipPercentage("0.50")

		_, err := service.NewContract("s", "a", "Title", 1000, -1, price, pct, time.Now().UTC())

		if !errors.Is(err, apperrors.ErrBusinessRuleViolation) {
			t.Errorf("Expected ErrBusinessRuleViolation, got %v", err)
		}
	})

	t.Run("rejects pools above the share cap", func(t *testing.T) {
		price := mustSharePrice(t, "10.00")
		pct, _ := model.ParseOwnershipPercentage("0.50")

		_, err := service.NewContract("s", "a", "Title", model.MaxTotalShares+1, 0, price, pct, time.Now().UTC())

		if !errors.Is(err, apperrors.ErrBusinessRuleViolation) {
			t.Errorf("Expected ErrBusinessRuleViolation, got %v", err)
		}
	})

	t.Run("rejects missing identifiers and title", func(t *testing.T) {
		price := mustSharePrice(t, "10.00")
		pct, _ := model.ParseOwnershipPercentage("0.50")

		if _, err := service.NewContract("", "a", "Title", 1000, 0, price, pct, time.Now().UTC()); !errors.Is(err, apperrors.ErrEmptyID) {
			t.Errorf("Expected ErrEmptyID for missing song ID, got %v", err)
		}
		if _, err := service.NewContract("s", "a", "", 1000, 0, price, pct, time.Now().UTC()); !errors.Is(err, apperrors.ErrMissingRequiredField) {
			t.Errorf("Expected ErrMissingRequiredField for missing title, got %v", err)
		}
	})
}

// TestOwnershipAggregate_Purchase tests in-memory purchase execution.
//
// WHY: The aggregate is the only place pool accounting happens. Held plus
// available must equal the fan pool after every mutation, and the buyer's
// price guard must stop execution when the price moved.
func TestOwnershipAggregate_Purchase(t *testing.T) {
	t.Run("moves shares from pool to buyer", func(t *testing.T) {
		// Setup
		agg := testAggregate(t, 1000, 200, "10.00")
		now := time.Now().UTC()

		// Execute
		transaction, ownership, err := agg.Purchase("buyer-1", 100, mustSharePrice(t, "10.00"), now)

		// Assert
		if err != nil {
			t.Fatalf("Purchase() returned unexpected error: %v", err)
		}
		if agg.Song.AvailableShares != 700 {
			t.Errorf("Expected 700 available shares, got %d", agg.Song.AvailableShares)
		}
		if ownership.SharesOwned != 100 {
			t.Errorf("Expected 100 owned shares, got %d", ownership.SharesOwned)
		}
		if !transaction.TotalAmount.Equal(decimal.RequireFromString("1000.00")) {
			t.Errorf("Expected total 1000.00, got %s", transaction.TotalAmount.String())
		}
		if transaction.Status != model.TransactionStatusPending {
			t.Errorf("Expected pending transaction, got %q", transaction.Status)
		}

		if err := agg.VerifyIntegrity(); err != nil {
			t.Errorf("Pool conservation broken after purchase: %v", err)
		}
	})

	t.Run("rejects quantities beyond the pool", func(t *testing.T) {
		agg := testAggregate(t, 1000, 200, "10.00")

		_, _, err := agg.Purchase("buyer-1", 801, mustSharePrice(t, "10.00"), time.Now().UTC())

		if !errors.Is(err, apperrors.ErrInsufficientShares) {
			t.Errorf("Expected ErrInsufficientShares, got %v", err)
		}
		if agg.Song.AvailableShares != 800 {
			t.Errorf("Failed purchase must not change the pool, got %d", agg.Song.AvailableShares)
		}
	})

	t.Run("price guard trips when current price exceeds maximum", func(t *testing.T) {
		agg := testAggregate(t, 1000, 200, "10.00")

		_, _, err := agg.Purchase("buyer-1", 100, mustSharePrice(t, "9.99"), time.Now().UTC())

		if !errors.Is(err, apperrors.ErrPriceExceeded) {
			t.Errorf("Expected ErrPriceExceeded, got %v", err)
		}
		if agg.Song.AvailableShares != 800 {
			t.Errorf("Failed purchase must not change the pool, got %d", agg.Song.AvailableShares)
		}
	})

	t.Run("price guard allows an exactly matching maximum", func(t *testing.T) {
		agg := testAggregate(t, 1000, 200, "10.00")

		_, _, err := agg.Purchase("buyer-1", 100, mustSharePrice(t, "10.00"), time.Now().UTC())

		if err != nil {
			t.Errorf("Expected purchase at exact maximum to succeed, got %v", err)
		}
	})

	t.Run("repeat purchases accumulate with weighted average price", func(t *testing.T) {
		// Setup
		agg := testAggregate(t, 1000, 200, "10.00")
		now := time.Now().UTC()

		// First buy: 100 @ 10.00
		if _, _, err := agg.Purchase("buyer-1", 100, mustSharePrice(t, "10.00"), now); err != nil {
			t.Fatalf("First purchase returned unexpected error: %v", err)
		}

		// Price moves to 20.00, second buy: 100 @ 20.00
		agg.Song.CurrentPricePerShare = decimal.RequireFromString("20.00")
		_, ownership, err := agg.Purchase("buyer-1", 100, mustSharePrice(t, "20.00"), now)

		// Assert
		if err != nil {
			t.Fatalf("Second purchase returned unexpected error: %v", err)
		}
		if ownership.SharesOwned != 200 {
			t.Errorf("Expected 200 owned shares, got %d", ownership.SharesOwned)
		}
		// (100*10 + 100*20) / 200 = 15
		if !ownership.PurchasePrice.Equal(decimal.RequireFromString("15")) {
			t.Errorf("Expected weighted average 15, got %s", ownership.PurchasePrice.String())
		}
		if len(agg.Ownerships) != 1 {
			t.Errorf("Expected a single holding row, got %d", len(agg.Ownerships))
		}
	})

	t.Run("rejects non-positive quantities", func(t *testing.T) {
		agg := testAggregate(t, 1000, 200, "10.00")

		for _, quantity := range []int64{0, -10} {
			_, _, err := agg.Purchase("buyer-1", quantity, mustSharePrice(t, "10.00"), time.Now().UTC())
			if !errors.Is(err, apperrors.ErrInvalidQuantity) {
				t.Errorf("Purchase(quantity=%d) expected ErrInvalidQuantity, got %v", quantity, err)
			}
		}
	})
}

// TestOwnershipAggregate_Transfer tests bilateral share transfers.
//
// WHY: Transfers reshuffle existing holdings without touching the pool. The
// seller draining to zero must be reported so the caller deletes the row
// instead of storing a zero-share holding.
func TestOwnershipAggregate_Transfer(t *testing.T) {
	setup := func(t *testing.T) *service.OwnershipAggregate {
		t.Helper()
		agg := testAggregate(t, 1000, 200, "10.00")
		if _, _, err := agg.Purchase("seller-1", 300, mustSharePrice(t, "10.00"), time.Now().UTC()); err != nil {
			t.Fatalf("Setup purchase returned unexpected error: %v", err)
		}
		return agg
	}

	t.Run("moves shares between holders without touching the pool", func(t *testing.T) {
		// Setup
		agg := setup(t)
		poolBefore := agg.Song.AvailableShares

		// Execute
		transaction, seller, buyer, drained, err := agg.Transfer("seller-1", "buyer-2", 100, mustSharePrice(t, "12.00"), time.Now().UTC())

		// Assert
		if err != nil {
			t.Fatalf("Transfer() returned unexpected error: %v", err)
		}
		if agg.Song.AvailableShares != poolBefore {
			t.Errorf("Transfer must not change the pool: before %d, after %d", poolBefore, agg.Song.AvailableShares)
		}
		if seller.SharesOwned != 200 {
			t.Errorf("Expected seller to keep 200 shares, got %d", seller.SharesOwned)
		}
		if buyer.SharesOwned != 100 {
			t.Errorf("Expected buyer to hold 100 shares, got %d", buyer.SharesOwned)
		}
		if drained {
			t.Error("Seller still holds shares, drained must be false")
		}
		if transaction.Type != model.TransactionTypeTransfer {
			t.Errorf("Expected transfer transaction, got %q", transaction.Type)
		}
		if !transaction.TotalAmount.Equal(decimal.RequireFromString("1200.00")) {
			t.Errorf("Expected total 1200.00, got %s", transaction.TotalAmount.String())
		}

		if err := agg.VerifyIntegrity(); err != nil {
			t.Errorf("Pool conservation broken after transfer: %v", err)
		}
	})

	t.Run("reports a fully drained seller", func(t *testing.T) {
		agg := setup(t)

		_, seller, _, drained, err := agg.Transfer("seller-1", "buyer-2", 300, mustSharePrice(t, "12.00"), time.Now().UTC())

		if err != nil {
			t.Fatalf("Transfer() returned unexpected error: %v", err)
		}
		if !drained {
			t.Error("Expected drained seller to be reported")
		}
		if seller.SharesOwned != 0 {
			t.Errorf("Expected seller at zero shares, got %d", seller.SharesOwned)
		}
	})

	t.Run("buyer with an existing position gets a weighted average", func(t *testing.T) {
		// Setup: buyer-2 already bought 100 from the pool at 10.00
		agg := setup(t)
		if _, _, err := agg.Purchase("buyer-2", 100, mustSharePrice(t, "10.00"), time.Now().UTC()); err != nil {
			t.Fatalf("Setup purchase returned unexpected error: %v", err)
		}

		// Execute: transfer 100 more at 20.00
		_, _, buyer, _, err := agg.Transfer("seller-1", "buyer-2", 100, mustSharePrice(t, "20.00"), time.Now().UTC())

		// Assert
		if err != nil {
			t.Fatalf("Transfer() returned unexpected error: %v", err)
		}
		if buyer.SharesOwned != 200 {
			t.Errorf("Expected 200 owned shares, got %d", buyer.SharesOwned)
		}
		if !buyer.PurchasePrice.Equal(decimal.RequireFromString("15")) {
			t.Errorf("Expected weighted average 15, got %s", buyer.PurchasePrice.String())
		}
	})

	t.Run("rejects transfers to yourself", func(t *testing.T) {
		agg := setup(t)

		_, _, _, _, err := agg.Transfer("seller-1", "seller-1", 100, mustSharePrice(t, "12.00"), time.Now().UTC())

		if !errors.Is(err, apperrors.ErrBusinessRuleViolation) {
			t.Errorf("Expected ErrBusinessRuleViolation, got %v", err)
		}
	})

	t.Run("rejects sellers without a position", func(t *testing.T) {
		agg := setup(t)

		_, _, _, _, err := agg.Transfer("stranger", "buyer-2", 100, mustSharePrice(t, "12.00"), time.Now().UTC())

		if !errors.Is(err, apperrors.ErrOwnershipNotFound) {
			t.Errorf("Expected ErrOwnershipNotFound, got %v", err)
		}
	})

	t.Run("rejects transfers beyond the seller's position", func(t *testing.T) {
		agg := setup(t)

		_, _, _, _, err := agg.Transfer("seller-1", "buyer-2", 301, mustSharePrice(t, "12.00"), time.Now().UTC())

		if !errors.Is(err, apperrors.ErrInsufficientShares) {
			t.Errorf("Expected ErrInsufficientShares, got %v", err)
		}
	})
}

// TestOwnershipAggregate_VerifyIntegrity tests the pool conservation check.
//
// WHY: A row edited outside the aggregate (manual fix, partial migration)
// must be caught before any operation trusts the numbers.
func TestOwnershipAggregate_VerifyIntegrity(t *testing.T) {
	t.Run("accepts a conserved pool", func(t *testing.T) {
		agg := testAggregate(t, 1000, 200, "10.00")
		if _, _, err := agg.Purchase("buyer-1", 100, mustSharePrice(t, "10.00"), time.Now().UTC()); err != nil {
			t.Fatalf("Purchase() returned unexpected error: %v", err)
		}

		if err := agg.VerifyIntegrity(); err != nil {
			t.Errorf("VerifyIntegrity() returned unexpected error: %v", err)
		}
	})

	t.Run("detects a leaked pool", func(t *testing.T) {
		agg := testAggregate(t, 1000, 200, "10.00")
		if _, _, err := agg.Purchase("buyer-1", 100, mustSharePrice(t, "10.00"), time.Now().UTC()); err != nil {
			t.Fatalf("Purchase() returned unexpected error: %v", err)
		}

		// Corrupt the pool: shares now exist twice
		agg.Song.AvailableShares = 800

		err := agg.VerifyIntegrity()
		if !errors.Is(err, apperrors.ErrDataInconsistency) {
			t.Errorf("Expected ErrDataInconsistency, got %v", err)
		}
	})

	t.Run("detects a broken share split", func(t *testing.T) {
		agg := testAggregate(t, 1000, 200, "10.00")
		agg.Song.FanAvailableShares = 700

		err := agg.VerifyIntegrity()
		if !errors.Is(err, apperrors.ErrDataInconsistency) {
			t.Errorf("Expected ErrDataInconsistency, got %v", err)
		}
	})
}
