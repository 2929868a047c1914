package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tunevest/songshare-ledger/internal/api/response"
	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/service"
	"github.com/tunevest/songshare-ledger/internal/validation"
)

// HoldingsHandler handles HTTP requests for user-scoped holdings and earnings endpoints.
type HoldingsHandler struct {
	holdingsService     *service.HoldingsService
	distributionService *service.DistributionService
}

// NewHoldingsHandler creates a new HoldingsHandler with the provided service dependencies.
func NewHoldingsHandler(holdingsService *service.HoldingsService, distributionService *service.DistributionService) *HoldingsHandler {
	return &HoldingsHandler{
		holdingsService:     holdingsService,
		distributionService: distributionService,
	}
}

// UserHoldings handles GET requests to retrieve every shareholding of one user.
// Returns positions enriched with song details and current market value.
//
// Endpoint: GET /api/holdings/user/{uuid}
// Response: 200 OK with array of Holding
// Error: 400 Bad Request if user ID is invalid (validated by middleware)
// Error: 500 Internal Server Error if retrieval fails
func (h *HoldingsHandler) UserHoldings(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "uuid")

	holdings, err := h.holdingsService.GetUserHoldings(userID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveHoldings.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, holdings)
}

// UserSongEarnings handles GET requests to retrieve how much a user has earned from one song.
// Sums the user's payout rows across all of the song's distributions. A user
// with no position in the song gets a zero summary, not an error.
//
// Endpoint: GET /api/holdings/user/{uuid}/song/{songUuid}/earnings
// Response: 200 OK with UserEarnings
// Error: 400 Bad Request if either ID is invalid
// Error: 404 Not Found if the song contract does not exist
// Error: 500 Internal Server Error if retrieval fails
func (h *HoldingsHandler) UserSongEarnings(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "uuid")
	songID := chi.URLParam(r, "songUuid")

	if err := validation.ValidateUUID(songID); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid song ID", err.Error())
		return
	}

	earnings, err := h.distributionService.GetUserEarnings(userID, songID)
	if err != nil {
		if errors.Is(err, apperrors.ErrContractNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrContractNotFound.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveEarnings.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, earnings)
}
