package validation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tunevest/songshare-ledger/internal/api/request"
)

// ValidatePurchaseShares validates a share purchase request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - buyerId: Must be a valid UUID
//   - sharesQuantity: Must be positive
//   - maxPricePerShare: Must be a positive decimal string
//
// Optional fields (validated if provided):
//   - idempotencyKey: Must be a valid UUID if provided
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidatePurchaseShares(req request.PurchaseSharesRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.BuyerID); err != nil {
		return err
	}
	if req.IdempotencyKey != "" {
		if err := ValidateUUID(req.IdempotencyKey); err != nil {
			return err
		}
	}

	if req.SharesQuantity <= 0 {
		errors["sharesQuantity"] = "sharesQuantity must be positive"
	}

	if strings.TrimSpace(req.MaxPricePerShare) == "" {
		errors["maxPricePerShare"] = "maxPricePerShare is required"
	} else if price, err := decimal.NewFromString(req.MaxPricePerShare); err != nil {
		errors["maxPricePerShare"] = err.Error()
	} else if price.LessThanOrEqual(decimal.Zero) {
		errors["maxPricePerShare"] = "maxPricePerShare must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateTransferShares validates a share transfer request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - sellerId: Must be a valid UUID
//   - buyerId: Must be a valid UUID, distinct from sellerId
//   - sharesQuantity: Must be positive
//   - pricePerShare: Must be a positive decimal string
//
// Optional fields (validated if provided):
//   - idempotencyKey: Must be a valid UUID if provided
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateTransferShares(req request.TransferSharesRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.SellerID); err != nil {
		return err
	}
	if err := ValidateUUID(req.BuyerID); err != nil {
		return err
	}
	if req.IdempotencyKey != "" {
		if err := ValidateUUID(req.IdempotencyKey); err != nil {
			return err
		}
	}

	if req.SellerID == req.BuyerID {
		errors["buyerId"] = "buyerId must differ from sellerId"
	}

	if req.SharesQuantity <= 0 {
		errors["sharesQuantity"] = "sharesQuantity must be positive"
	}

	if strings.TrimSpace(req.PricePerShare) == "" {
		errors["pricePerShare"] = "pricePerShare is required"
	} else if price, err := decimal.NewFromString(req.PricePerShare); err != nil {
		errors["pricePerShare"] = err.Error()
	} else if price.LessThanOrEqual(decimal.Zero) {
		errors["pricePerShare"] = "pricePerShare must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
