package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tunevest/songshare-ledger/internal/api/handlers"
	"github.com/tunevest/songshare-ledger/internal/api/request"
	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/model"
	"github.com/tunevest/songshare-ledger/internal/testutil"
)

// distributeOnce drives a successful distribution through the handler and
// returns the decoded result. Used by tests that need an existing
// distribution on record.
func distributeOnce(t *testing.T, handler *handlers.DistributionHandler, songID, periodID string) model.DistributionResult {
	t.Helper()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/contract/"+songID+"/distribute",
		map[string]string{"uuid": songID},
		request.DistributeRevenueRequest{
			PeriodID:       periodID,
			TotalRevenue:   "100.00",
			PlatformFeePct: "0.10",
		})
	w := httptest.NewRecorder()

	handler.DistributeRevenue(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201 from distribution, got %d: %s", w.Code, w.Body.String())
	}

	var result model.DistributionResult
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode distribution result: %v", err)
	}
	return result
}

// TestDistributionHandler_DistributeRevenue tests the POST /api/contract/{uuid}/distribute endpoint.
//
// WHY: Distribution writes money onto the ledger. The endpoint must return
// the full payout breakdown on success, refuse double-booking a period, and
// distinguish an empty cap table from bad input.
func TestDistributionHandler_DistributeRevenue(t *testing.T) {
	t.Run("returns 201 with the payout breakdown", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewDistributionHandler(testutil.NewTestDistributionService(t, db))

		song := testutil.NewContract().WithShares(1000, 200).WithAvailableShares(700).Build(t, db)
		testutil.CreateOwnership(t, db, song.ID, testutil.MakeID(), 100)

		// Execute
		result := distributeOnce(t, handler, song.ID, testutil.MakePeriodID())

		// Assert
		if !result.Distribution.Distributable.Equal(decimal.RequireFromString("90.00")) {
			t.Errorf("Expected distributable 90.00, got %s", result.Distribution.Distributable)
		}
		if result.Distribution.ShareholdersCount != 1 {
			t.Errorf("Expected 1 shareholder, got %d", result.Distribution.ShareholdersCount)
		}
		if len(result.Payouts) != 2 {
			t.Fatalf("Expected 2 payouts (fan and residual), got %d", len(result.Payouts))
		}
		if result.Payouts[1].IsArtistResidual != true {
			t.Error("Expected the final payout to be the artist residual")
		}

		total := decimal.Zero
		for _, payout := range result.Payouts {
			total = total.Add(payout.PayoutAmount)
		}
		if !total.Equal(result.Distribution.Distributable) {
			t.Errorf("Expected payouts to sum to %s, got %s", result.Distribution.Distributable, total)
		}

		testutil.AssertRowCount(t, db, "revenue_distributions", 1)
		testutil.AssertRowCount(t, db, "individual_revenue_payouts", 2)
	})

	t.Run("returns 409 when the period is distributed twice", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewDistributionHandler(testutil.NewTestDistributionService(t, db))

		song := testutil.NewContract().WithAvailableShares(700).Build(t, db)
		testutil.CreateOwnership(t, db, song.ID, testutil.MakeID(), 100)

		periodID := testutil.MakePeriodID()
		distributeOnce(t, handler, song.ID, periodID)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/contract/"+song.ID+"/distribute",
			map[string]string{"uuid": song.ID},
			request.DistributeRevenueRequest{
				PeriodID:     periodID,
				TotalRevenue: "100.00",
			})
		w := httptest.NewRecorder()

		// Execute
		handler.DistributeRevenue(w, req)

		// Assert
		if w.Code != http.StatusConflict {
			t.Fatalf("Expected status 409, got %d", w.Code)
		}

		var response map[string]string
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}
		if response["error"] != apperrors.ErrDuplicateDistribution.Error() {
			t.Errorf("Expected error %q, got %q", apperrors.ErrDuplicateDistribution.Error(), response["error"])
		}
		testutil.AssertRowCount(t, db, "revenue_distributions", 1)
	})

	t.Run("returns 422 when the song has no shareholders", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewDistributionHandler(testutil.NewTestDistributionService(t, db))

		song := testutil.NewContract().Build(t, db)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/contract/"+song.ID+"/distribute",
			map[string]string{"uuid": song.ID},
			request.DistributeRevenueRequest{
				PeriodID:     testutil.MakePeriodID(),
				TotalRevenue: "100.00",
			})
		w := httptest.NewRecorder()

		// Execute
		handler.DistributeRevenue(w, req)

		// Assert
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Expected status 422, got %d", w.Code)
		}
		testutil.AssertRowCount(t, db, "revenue_distributions", 0)
	})

	t.Run("returns 400 for a fee above one hundred percent", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewDistributionHandler(testutil.NewTestDistributionService(t, db))

		song := testutil.NewContract().WithAvailableShares(700).Build(t, db)
		testutil.CreateOwnership(t, db, song.ID, testutil.MakeID(), 100)

		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/contract/"+song.ID+"/distribute",
			map[string]string{"uuid": song.ID},
			request.DistributeRevenueRequest{
				PeriodID:       testutil.MakePeriodID(),
				TotalRevenue:   "100.00",
				PlatformFeePct: "1.5",
			})
		w := httptest.NewRecorder()

		// Execute
		handler.DistributeRevenue(w, req)

		// Assert
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
		testutil.AssertRowCount(t, db, "revenue_distributions", 0)
	})

	t.Run("returns 404 for an unknown contract", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewDistributionHandler(testutil.NewTestDistributionService(t, db))

		unknown := testutil.MakeID()
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/contract/"+unknown+"/distribute",
			map[string]string{"uuid": unknown},
			request.DistributeRevenueRequest{
				PeriodID:     testutil.MakePeriodID(),
				TotalRevenue: "100.00",
			})
		w := httptest.NewRecorder()

		// Execute
		handler.DistributeRevenue(w, req)

		// Assert
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

// TestDistributionHandler_ContractDistributions tests the GET /api/contract/{uuid}/distributions endpoint.
func TestDistributionHandler_ContractDistributions(t *testing.T) {
	t.Run("returns 200 with the song's distribution history", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewDistributionHandler(testutil.NewTestDistributionService(t, db))

		song := testutil.NewContract().WithAvailableShares(700).Build(t, db)
		testutil.CreateOwnership(t, db, song.ID, testutil.MakeID(), 100)
		distributeOnce(t, handler, song.ID, testutil.MakePeriodID())

		req := testutil.NewRequestWithURLParams(
			http.MethodGet, "/api/contract/"+song.ID+"/distributions", map[string]string{"uuid": song.ID})
		w := httptest.NewRecorder()

		// Execute
		handler.ContractDistributions(w, req)

		// Assert
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var distributions []model.RevenueDistribution
		if err := json.NewDecoder(w.Body).Decode(&distributions); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(distributions) != 1 {
			t.Errorf("Expected 1 distribution, got %d", len(distributions))
		}
	})

	t.Run("returns 404 for an unknown contract", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewDistributionHandler(testutil.NewTestDistributionService(t, db))

		unknown := testutil.MakeID()
		req := testutil.NewRequestWithURLParams(
			http.MethodGet, "/api/contract/"+unknown+"/distributions", map[string]string{"uuid": unknown})
		w := httptest.NewRecorder()

		// Execute
		handler.ContractDistributions(w, req)

		// Assert
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

// TestDistributionHandler_DistributionPayouts tests the GET /api/distribution/{uuid}/payouts endpoint.
func TestDistributionHandler_DistributionPayouts(t *testing.T) {
	t.Run("returns 200 with the recorded payout rows", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewDistributionHandler(testutil.NewTestDistributionService(t, db))

		song := testutil.NewContract().WithAvailableShares(700).Build(t, db)
		testutil.CreateOwnership(t, db, song.ID, testutil.MakeID(), 100)
		created := distributeOnce(t, handler, song.ID, testutil.MakePeriodID())

		req := testutil.NewRequestWithURLParams(
			http.MethodGet, "/api/distribution/"+created.Distribution.ID+"/payouts",
			map[string]string{"uuid": created.Distribution.ID})
		w := httptest.NewRecorder()

		// Execute
		handler.DistributionPayouts(w, req)

		// Assert
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}

		var result model.DistributionResult
		if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}

		if result.Distribution.ID != created.Distribution.ID {
			t.Errorf("Expected distribution %s, got %s", created.Distribution.ID, result.Distribution.ID)
		}
		if len(result.Payouts) != len(created.Payouts) {
			t.Errorf("Expected %d payouts, got %d", len(created.Payouts), len(result.Payouts))
		}
	})

	t.Run("returns 404 for an unknown distribution", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewDistributionHandler(testutil.NewTestDistributionService(t, db))

		unknown := testutil.MakeID()
		req := testutil.NewRequestWithURLParams(
			http.MethodGet, "/api/distribution/"+unknown+"/payouts", map[string]string{"uuid": unknown})
		w := httptest.NewRecorder()

		// Execute
		handler.DistributionPayouts(w, req)

		// Assert
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}
