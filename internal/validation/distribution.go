package validation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tunevest/songshare-ledger/internal/api/request"
)

// ValidateDistributeRevenue validates a revenue distribution request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - periodId: Must be non-empty, at most 64 characters
//   - totalRevenue: Must be a positive decimal string
//
// Optional fields (validated if provided):
//   - platformFeePct: Must be a decimal string in [0, 1) if provided
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateDistributeRevenue(req request.DistributeRevenueRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.PeriodID) == "" {
		errors["periodId"] = "periodId is required"
	} else if len(req.PeriodID) > 64 {
		errors["periodId"] = "periodId must be at most 64 characters"
	}

	if strings.TrimSpace(req.TotalRevenue) == "" {
		errors["totalRevenue"] = "totalRevenue is required"
	} else if amount, err := decimal.NewFromString(req.TotalRevenue); err != nil {
		errors["totalRevenue"] = err.Error()
	} else if amount.LessThanOrEqual(decimal.Zero) {
		errors["totalRevenue"] = "totalRevenue must be positive"
	}

	if strings.TrimSpace(req.PlatformFeePct) != "" {
		if pct, err := decimal.NewFromString(req.PlatformFeePct); err != nil {
			errors["platformFeePct"] = err.Error()
		} else if pct.IsNegative() || pct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			errors["platformFeePct"] = "platformFeePct must be in [0, 1)"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
