package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tunevest/songshare-ledger/internal/api/request"
	"github.com/tunevest/songshare-ledger/internal/api/response"
	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/service"
	"github.com/tunevest/songshare-ledger/internal/validation"
)

// DistributionHandler handles HTTP requests for revenue distribution endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the distributionService.
type DistributionHandler struct {
	distributionService *service.DistributionService
}

// NewDistributionHandler creates a new DistributionHandler with the provided service dependency.
func NewDistributionHandler(distributionService *service.DistributionService) *DistributionHandler {
	return &DistributionHandler{
		distributionService: distributionService,
	}
}

// DistributeRevenue handles POST requests to distribute a revenue period across shareholders.
// Deducts the platform fee, splits the remainder pro rata over fan holdings, and
// books the artist's residual. Each period can be distributed at most once per song.
//
// Endpoint: POST /api/contract/{uuid}/distribute
// Request Body: DistributeRevenueRequest
// Response: 201 Created with DistributionResult
// Error: 400 Bad Request if validation fails or the amount distributes to nothing
// Error: 404 Not Found if contract not found
// Error: 409 Conflict if the period was already distributed for this song
// Error: 422 Unprocessable Entity if the song has no shareholders
// Error: 500 Internal Server Error if distribution fails
func (h *DistributionHandler) DistributeRevenue(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.DistributeRevenueRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateDistributeRevenue(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.distributionService.DistributeRevenue(r.Context(), contractID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrContractNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrContractNotFound.Error(), err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrDuplicateDistribution) {
			response.RespondError(w, http.StatusConflict, apperrors.ErrDuplicateDistribution.Error(), err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrNoShareholders) {
			response.RespondError(w, http.StatusUnprocessableEntity, apperrors.ErrNoShareholders.Error(), err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrInvalidAmount) ||
			errors.Is(err, apperrors.ErrInvalidPercentage) ||
			errors.Is(err, apperrors.ErrMissingRequiredField) ||
			errors.Is(err, apperrors.ErrBusinessRuleViolation) {
			response.RespondError(w, http.StatusBadRequest, "invalid distribution request", err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, "failed to distribute revenue", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, result)
}

// ContractDistributions handles GET requests to list every distribution booked for a song.
//
// Endpoint: GET /api/contract/{uuid}/distributions
// Response: 200 OK with array of RevenueDistribution
// Error: 400 Bad Request if contract ID is invalid (validated by middleware)
// Error: 404 Not Found if contract not found
// Error: 500 Internal Server Error if retrieval fails
func (h *DistributionHandler) ContractDistributions(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "uuid")

	distributions, err := h.distributionService.GetDistributions(contractID)
	if err != nil {
		if errors.Is(err, apperrors.ErrContractNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrContractNotFound.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveDistributions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, distributions)
}

// DistributionPayouts handles GET requests to retrieve a distribution with its payout rows.
// Fan payouts come first ordered by user, with the artist residual row last.
//
// Endpoint: GET /api/distribution/{uuid}/payouts
// Response: 200 OK with DistributionResult
// Error: 400 Bad Request if distribution ID is invalid (validated by middleware)
// Error: 404 Not Found if distribution not found
// Error: 500 Internal Server Error if retrieval fails
func (h *DistributionHandler) DistributionPayouts(w http.ResponseWriter, r *http.Request) {
	distributionID := chi.URLParam(r, "uuid")

	result, err := h.distributionService.GetPayouts(distributionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrDistributionNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrDistributionNotFound.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePayouts.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
