package validation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tunevest/songshare-ledger/internal/api/request"
	"github.com/tunevest/songshare-ledger/internal/model"
)

// ValidateIssueContract validates a contract issuance request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - songId: Must be a valid UUID
//   - artistId: Must be a valid UUID
//   - title: Must be non-empty
//   - totalShares: Must be positive and at most the share pool cap
//   - artistReservedShares: Must be non-negative and less than totalShares
//   - pricePerShare: Must be a positive decimal string
//   - artistRevenuePercentage: Must be a decimal string in (0, 1]
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateIssueContract(req request.IssueContractRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.SongID); err != nil {
		return err
	}
	if err := ValidateUUID(req.ArtistID); err != nil {
		return err
	}

	if strings.TrimSpace(req.Title) == "" {
		errors["title"] = "title is required"
	}

	if req.TotalShares <= 0 {
		errors["totalShares"] = "totalShares must be positive"
	} else if req.TotalShares > model.MaxTotalShares {
		errors["totalShares"] = "totalShares exceeds the share pool cap"
	}

	if req.ArtistReservedShares < 0 {
		errors["artistReservedShares"] = "artistReservedShares must be non-negative"
	} else if req.TotalShares > 0 && req.ArtistReservedShares >= req.TotalShares {
		errors["artistReservedShares"] = "artistReservedShares must be less than totalShares"
	}

	if strings.TrimSpace(req.PricePerShare) == "" {
		errors["pricePerShare"] = "pricePerShare is required"
	} else if price, err := decimal.NewFromString(req.PricePerShare); err != nil {
		errors["pricePerShare"] = err.Error()
	} else if price.LessThanOrEqual(decimal.Zero) {
		errors["pricePerShare"] = "pricePerShare must be positive"
	}

	if strings.TrimSpace(req.ArtistRevenuePercentage) == "" {
		errors["artistRevenuePercentage"] = "artistRevenuePercentage is required"
	} else if pct, err := decimal.NewFromString(req.ArtistRevenuePercentage); err != nil {
		errors["artistRevenuePercentage"] = err.Error()
	} else if pct.LessThanOrEqual(decimal.Zero) || pct.GreaterThan(decimal.NewFromInt(1)) {
		errors["artistRevenuePercentage"] = "artistRevenuePercentage must be in (0, 1]"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateUpdatePrice validates a share price update request.
//
// Required fields:
//   - pricePerShare: Must be a positive decimal string
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateUpdatePrice(req request.UpdatePriceRequest) error {
	errors := make(map[string]string)

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
