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

// TradingHandler handles HTTP requests for share purchase and transfer endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the ownershipService.
type TradingHandler struct {
	ownershipService *service.OwnershipService
}

// NewTradingHandler creates a new TradingHandler with the provided service dependency.
func NewTradingHandler(ownershipService *service.OwnershipService) *TradingHandler {
	return &TradingHandler{
		ownershipService: ownershipService,
	}
}

// PurchaseShares handles POST requests to buy shares from a song's available pool.
// The purchase executes at the contract's current price, guarded by the buyer's
// maxPricePerShare. Requests carrying an idempotency key of an already completed
// purchase return the original transaction unchanged.
//
// Endpoint: POST /api/contract/{uuid}/purchase
// Request Body: PurchaseSharesRequest
// Response: 201 Created with the completed ShareTransaction
// Error: 400 Bad Request if validation fails, shares are insufficient, or the price guard trips
// Error: 404 Not Found if contract not found
// Error: 409 Conflict if the idempotency key was used for a different request
// Error: 500 Internal Server Error if the purchase fails
func (h *TradingHandler) PurchaseShares(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.PurchaseSharesRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidatePurchaseShares(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	transaction, err := h.ownershipService.PurchaseShares(r.Context(), contractID, req)
	if err != nil {
		h.respondTradeError(w, err, "failed to purchase shares")
		return
	}

	response.RespondJSON(w, http.StatusCreated, transaction)
}

// TransferShares handles POST requests to move shares between two existing or new holders.
// Transfers never touch the song's available pool; the seller's position shrinks and
// the buyer's grows by the same quantity.
//
// Endpoint: POST /api/contract/{uuid}/transfer
// Request Body: TransferSharesRequest
// Response: 201 Created with the completed ShareTransaction
// Error: 400 Bad Request if validation fails or the seller holds too few shares
// Error: 404 Not Found if contract or seller position not found
// Error: 409 Conflict if the idempotency key was used for a different request
// Error: 500 Internal Server Error if the transfer fails
func (h *TradingHandler) TransferShares(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.TransferSharesRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateTransferShares(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	transaction, err := h.ownershipService.TransferShares(r.Context(), contractID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrOwnershipNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrOwnershipNotFound.Error(), err.Error())
			return
		}
		h.respondTradeError(w, err, "failed to transfer shares")
		return
	}

	response.RespondJSON(w, http.StatusCreated, transaction)
}

// ContractTransactions handles GET requests to retrieve a song's append-only transaction history.
// Returns completed, pending, and failed transactions in chronological order.
//
// Endpoint: GET /api/contract/{uuid}/transactions
// Response: 200 OK with array of ShareTransaction
// Error: 400 Bad Request if contract ID is invalid (validated by middleware)
// Error: 404 Not Found if contract not found
// Error: 500 Internal Server Error if retrieval fails
func (h *TradingHandler) ContractTransactions(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "uuid")

	transactions, err := h.ownershipService.GetTransactionsBySong(contractID)
	if err != nil {
		if errors.Is(err, apperrors.ErrContractNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrContractNotFound.Error(), err.Error())
			return
		}

		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveTransactions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, transactions)
}

// UserTransactions handles GET requests to retrieve every transaction a user took part in,
// whether as buyer or as seller.
//
// Endpoint: GET /api/holdings/user/{uuid}/transactions
// Response: 200 OK with array of ShareTransaction
// Error: 400 Bad Request if user ID is invalid (validated by middleware)
// Error: 500 Internal Server Error if retrieval fails
func (h *TradingHandler) UserTransactions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "uuid")

	transactions, err := h.ownershipService.GetTransactionsByUser(userID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveTransactions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, transactions)
}

// respondTradeError maps trade execution failures onto HTTP statuses shared by
// the purchase and transfer endpoints.
func (h *TradingHandler) respondTradeError(w http.ResponseWriter, err error, fallback string) {
	if errors.Is(err, apperrors.ErrContractNotFound) {
		response.RespondError(w, http.StatusNotFound, apperrors.ErrContractNotFound.Error(), err.Error())
		return
	}
	if errors.Is(err, apperrors.ErrDuplicateEntry) {
		response.RespondError(w, http.StatusConflict, apperrors.ErrDuplicateEntry.Error(), err.Error())
		return
	}
	if errors.Is(err, apperrors.ErrInsufficientShares) {
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrInsufficientShares.Error(), err.Error())
		return
	}
	if errors.Is(err, apperrors.ErrPriceExceeded) {
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrPriceExceeded.Error(), err.Error())
		return
	}
	if errors.Is(err, apperrors.ErrInvalidQuantity) || errors.Is(err, apperrors.ErrInvalidPrice) {
		response.RespondError(w, http.StatusBadRequest, "invalid trade parameters", err.Error())
		return
	}
	if errors.Is(err, apperrors.ErrBusinessRuleViolation) {
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrBusinessRuleViolation.Error(), err.Error())
		return
	}

	response.RespondError(w, http.StatusInternalServerError, fallback, err.Error())
}
