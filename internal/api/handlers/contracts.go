package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tunevest/songshare-ledger/internal/api/request"
	"github.com/tunevest/songshare-ledger/internal/api/response"
	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/service"
	"github.com/tunevest/songshare-ledger/internal/validation"
)

// ContractHandler handles HTTP requests for fractional song contract endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the ownership and catalog services.
type ContractHandler struct {
	ownershipService *service.OwnershipService
	catalogService   *service.CatalogService
}

// NewContractHandler creates a new ContractHandler with the provided service dependencies.
func NewContractHandler(ownershipService *service.OwnershipService, catalogService *service.CatalogService) *ContractHandler {
	return &ContractHandler{
		ownershipService: ownershipService,
		catalogService:   catalogService,
	}
}

// IssueContract handles POST requests to issue a new fractional song contract.
// Validates the request body and creates the contract with its full share pool available.
//
// Endpoint: POST /api/contract
// Request Body: IssueContractRequest
// Response: 201 Created with the new FractionalSong
// Error: 400 Bad Request if validation fails or the share split is invalid
// Error: 409 Conflict if a contract already exists for the song
// Error: 500 Internal Server Error if creation fails
func (h *ContractHandler) IssueContract(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.IssueContractRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateIssueContract(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	song, err := h.ownershipService.IssueContract(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateContract) {
			response.RespondError(w, http.StatusConflict, apperrors.ErrDuplicateContract.Error(), err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrBusinessRuleViolation) {
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrBusinessRuleViolation.Error(), err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrInvalidPrice) || errors.Is(err, apperrors.ErrInvalidPercentage) {
			response.RespondError(w, http.StatusBadRequest, "invalid contract terms", err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, "failed to issue contract", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, song)
}

// GetContract handles GET requests to retrieve a single contract with its holder breakdown.
// Returns the contract terms, derived sale status, and every current shareholding.
//
// Endpoint: GET /api/contract/{uuid}
// Response: 200 OK with ContractDetail
// Error: 400 Bad Request if contract ID is invalid (validated by middleware)
// Error: 404 Not Found if contract not found
// Error: 500 Internal Server Error if retrieval fails
func (h *ContractHandler) GetContract(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "uuid")

	detail, err := h.ownershipService.GetContract(contractID)
	if err != nil {
		if errors.Is(err, apperrors.ErrContractNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrContractNotFound.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveContract.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, detail)
}

// Catalog handles GET requests to list contracts with pagination.
// Returns catalog entries enriched with sold share counts and holder counts.
//
// Endpoint: GET /api/contract?page=1&pageSize=20
// Response: 200 OK with CatalogPage
// Error: 400 Bad Request if pagination parameters are not integers
// Error: 500 Internal Server Error if retrieval fails
func (h *ContractHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid page parameter", err.Error())
		return
	}
	pageSize, err := queryInt(r, "pageSize", 0)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid pageSize parameter", err.Error())
		return
	}

	catalog, err := h.catalogService.GetCatalog(r.Context(), page, pageSize)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveContracts.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, catalog)
}

// ArtistContracts handles GET requests to list every contract issued by one artist.
//
// Endpoint: GET /api/contract/artist/{uuid}
// Response: 200 OK with array of CatalogEntry
// Error: 400 Bad Request if artist ID is invalid (validated by middleware)
// Error: 500 Internal Server Error if retrieval fails
func (h *ContractHandler) ArtistContracts(w http.ResponseWriter, r *http.Request) {
	artistID := chi.URLParam(r, "uuid")

	entries, err := h.catalogService.GetArtistContracts(r.Context(), artistID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveContracts.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, entries)
}

// UpdatePrice handles PUT requests to set a new administrative share price.
// The new price applies to future purchases only; completed transactions keep
// the price they were executed at.
//
// Endpoint: PUT /api/contract/{uuid}/price
// Request Body: UpdatePriceRequest
// Response: 200 OK with the updated FractionalSong
// Error: 400 Bad Request if contract ID is invalid (validated by middleware) or validation fails
// Error: 404 Not Found if contract not found
// Error: 500 Internal Server Error if update fails
func (h *ContractHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.UpdatePriceRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdatePrice(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	song, err := h.ownershipService.SetPrice(r.Context(), contractID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrContractNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrContractNotFound.Error(), err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrInvalidPrice) {
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidPrice.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, "failed to update price", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, song)
}

// TeardownContract handles DELETE requests to remove a contract.
// Only contracts with no outstanding fan shareholdings can be torn down.
//
// Endpoint: DELETE /api/contract/{uuid}
// Response: 204 No Content on successful teardown
// Error: 400 Bad Request if contract ID is invalid (validated by middleware)
// Error: 404 Not Found if contract not found
// Error: 409 Conflict if fans still hold shares
// Error: 500 Internal Server Error if teardown fails
func (h *ContractHandler) TeardownContract(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "uuid")

	err := h.ownershipService.Teardown(r.Context(), contractID)
	if err != nil {
		if errors.Is(err, apperrors.ErrContractNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrContractNotFound.Error(), err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrContractInUse) {
			response.RespondError(w, http.StatusConflict, apperrors.ErrContractInUse.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, "failed to tear down contract", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// PriceHistory handles GET requests to retrieve the recorded share price trail.
// Accepts optional date range filters in YYYY-MM-DD format.
//
// Endpoint: GET /api/contract/{uuid}/price-history?from=2026-01-01&to=2026-02-01
// Response: 200 OK with array of PricePoint
// Error: 400 Bad Request if contract ID is invalid (validated by middleware) or a date is malformed
// Error: 404 Not Found if contract not found
// Error: 500 Internal Server Error if retrieval fails
func (h *ContractHandler) PriceHistory(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "uuid")

	from, err := queryDate(r, "from")
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid from parameter", err.Error())
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid to parameter", err.Error())
		return
	}

	history, err := h.catalogService.GetPriceHistory(contractID, from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrContractNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrContractNotFound.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrievePriceHistory.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, history)
}

// queryInt parses an optional integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
