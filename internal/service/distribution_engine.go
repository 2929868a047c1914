package service

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/model"
)

var (
	one  = decimal.NewFromInt(1)
	cent = decimal.New(1, -2)
)

// distributableAmount computes the pot a distribution event pays out:
// total revenue less the platform fee, floored to cents. Sub-cent dust from
// the fee calculation stays with the platform so payouts can sum to the pot
// exactly.
func distributableAmount(totalRevenue model.RevenueAmount, platformFeePct decimal.Decimal) decimal.Decimal {
	return totalRevenue.Decimal().Mul(one.Sub(platformFeePct)).RoundDown(2)
}

// allocatePayouts splits distributable across the song's current holders.
//
// Each holder's stake is shares_owned / fan_available_shares. Raw payouts
// are floored to cents; the cents lost to flooring within the fan portion
// are handed back one at a time, largest fractional remainder first, ties
// broken by ascending user ID, so the run is deterministic. Whatever the fan
// percentages do not cover (reserved shares and still-unsold shares) goes to
// the artist as a single residual payout. All rows together sum to
// distributable exactly.
func allocatePayouts(distributionID string, song model.FractionalSong, holders []model.ShareOwnership, distributable decimal.Decimal) ([]model.IndividualPayout, error) {
	if len(holders) == 0 {
		return nil, apperrors.ErrNoShareholders
	}

	fanPool := decimal.NewFromInt(song.FanAvailableShares)

	type allocation struct {
		holder    model.ShareOwnership
		pct       decimal.Decimal
		floored   decimal.Decimal
		remainder decimal.Decimal
	}

	allocations := make([]allocation, 0, len(holders))
	heldShares := int64(0)
	fanFloorTotal := decimal.Zero

	for _, h := range holders {
		raw := distributable.Mul(decimal.NewFromInt(h.SharesOwned)).Div(fanPool)
		floored := raw.RoundDown(2)

		allocations = append(allocations, allocation{
			holder:    h,
			pct:       decimal.NewFromInt(h.SharesOwned).Div(fanPool),
			floored:   floored,
			remainder: raw.Sub(floored),
		})
		heldShares += h.SharesOwned
		fanFloorTotal = fanFloorTotal.Add(floored)
	}

	// The fan portion is sized from the held share count in one division, not
	// by summing per-holder quotients, so division rounding cannot leak fan
	// cents into the residual. Flooring losses inside the fan portion are
	// redistributed among the holders.
	fanPortion := distributable.Mul(decimal.NewFromInt(heldShares)).Div(fanPool).RoundDown(2)
	leftoverCents := fanPortion.Sub(fanFloorTotal).Div(cent).IntPart()

	order := make([]int, len(allocations))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		a, b := allocations[order[x]], allocations[order[y]]
		if !a.remainder.Equal(b.remainder) {
			return a.remainder.GreaterThan(b.remainder)
		}
		return a.holder.UserID < b.holder.UserID
	})

	// Fewer leftover cents than holders is guaranteed: n remainders each
	// below one cent floor to fewer than n cents.
	for i := int64(0); i < leftoverCents; i++ {
		idx := order[i]
		allocations[idx].floored = allocations[idx].floored.Add(cent)
	}

	payouts := make([]model.IndividualPayout, 0, len(allocations)+1)
	fanTotal := decimal.Zero
	for _, alloc := range allocations {
		payouts = append(payouts, model.IndividualPayout{
			ID:                    uuid.New().String(),
			RevenueDistributionID: distributionID,
			UserID:                alloc.holder.UserID,
			SharesOwnedAtTime:     alloc.holder.SharesOwned,
			OwnershipPercentage:   alloc.pct,
			PayoutAmount:          alloc.floored,
			Status:                model.PayoutStatusPendingSettlement,
		})
		fanTotal = fanTotal.Add(alloc.floored)
	}

	residual := distributable.Sub(fanTotal)
	if residual.IsNegative() {
		return nil, apperrors.ErrDataInconsistency
	}
	if residual.IsPositive() {
		payouts = append(payouts, model.IndividualPayout{
			ID:                    uuid.New().String(),
			RevenueDistributionID: distributionID,
			UserID:                song.ArtistID,
			SharesOwnedAtTime:     song.ArtistReservedShares + song.AvailableShares,
			OwnershipPercentage:   residual.Div(distributable),
			PayoutAmount:          residual,
			IsArtistResidual:      true,
			Status:                model.PayoutStatusPendingSettlement,
		})
	}

	return payouts, nil
}

// newDistribution builds the event record for a run of the engine.
func newDistribution(song model.FractionalSong, periodID string, totalRevenue model.RevenueAmount, platformFeePct, distributable decimal.Decimal, shareholders int, now time.Time) model.RevenueDistribution {
	return model.RevenueDistribution{
		ID:                uuid.New().String(),
		FractionalSongID:  song.ID,
		PeriodID:          periodID,
		TotalRevenue:      totalRevenue.Decimal(),
		PlatformFeePct:    platformFeePct,
		Distributable:     distributable,
		ShareholdersCount: shareholders,
		DistributionDate:  now,
	}
}
