package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tunevest/songshare-ledger/internal/apperrors"
	"github.com/tunevest/songshare-ledger/internal/model"
)

// OwnershipAggregate is the consistency boundary for one song's ledger: the
// contract row plus every current holding. It is loaded inside a database
// transaction, mutated in memory, and written back before commit. Aggregates
// are request-scoped and never shared between goroutines.
type OwnershipAggregate struct {
	Song       model.FractionalSong
	Ownerships []model.ShareOwnership
}

// VerifyIntegrity checks the pool conservation invariant before the
// aggregate is trusted: held shares plus available shares must equal the fan
// pool, and the stored price must still be a valid price.
func (a *OwnershipAggregate) VerifyIntegrity() error {
	if a.Song.TotalShares != a.Song.ArtistReservedShares+a.Song.FanAvailableShares {
		return fmt.Errorf("%w: share split does not add up for song %s",
			apperrors.ErrDataInconsistency, a.Song.ID)
	}
	if a.Song.AvailableShares < 0 || a.Song.AvailableShares > a.Song.FanAvailableShares {
		return fmt.Errorf("%w: available shares out of range for song %s",
			apperrors.ErrDataInconsistency, a.Song.ID)
	}

	var held int64
	for _, o := range a.Ownerships {
		held += o.SharesOwned
	}
	if held+a.Song.AvailableShares != a.Song.FanAvailableShares {
		return fmt.Errorf("%w: held %d + available %d != fan pool %d for song %s",
			apperrors.ErrDataInconsistency, held, a.Song.AvailableShares,
			a.Song.FanAvailableShares, a.Song.ID)
	}

	if _, err := model.NewSharePrice(a.Song.CurrentPricePerShare); err != nil {
		return fmt.Errorf("%w: stored price invalid for song %s",
			apperrors.ErrDataInconsistency, a.Song.ID)
	}

	return nil
}

// ownershipOf finds the holding of one user, if any.
func (a *OwnershipAggregate) ownershipOf(userID string) *model.ShareOwnership {
	for i := range a.Ownerships {
		if a.Ownerships[i].UserID == userID {
			return &a.Ownerships[i]
		}
	}
	return nil
}

// Purchase sells quantity shares from the pool to buyerID at the current
// price. maxPrice guards the buyer against the price moving between quote
// and execution. Returns the pending transaction record and the buyer's
// updated holding for the caller to persist.
func (a *OwnershipAggregate) Purchase(buyerID string, quantity int64, maxPrice model.SharePrice, now time.Time) (model.ShareTransaction, model.ShareOwnership, error) {
	if buyerID == "" {
		return model.ShareTransaction{}, model.ShareOwnership{}, apperrors.ErrEmptyID
	}
	if quantity <= 0 {
		return model.ShareTransaction{}, model.ShareOwnership{}, apperrors.ErrInvalidQuantity
	}
	if quantity > a.Song.AvailableShares {
		return model.ShareTransaction{}, model.ShareOwnership{}, apperrors.ErrInsufficientShares
	}

	price, err := model.NewSharePrice(a.Song.CurrentPricePerShare)
	if err != nil {
		return model.ShareTransaction{}, model.ShareOwnership{}, fmt.Errorf("%w: stored price invalid for song %s",
			apperrors.ErrDataInconsistency, a.Song.ID)
	}
	if price.GreaterThan(maxPrice) {
		return model.ShareTransaction{}, model.ShareOwnership{}, apperrors.ErrPriceExceeded
	}

	totalAmount := price.MulQuantity(quantity)

	a.Song.AvailableShares -= quantity
	a.Song.UpdatedAt = now

	ownership := a.applyAcquisition(buyerID, quantity, price.Decimal(), now)

	transaction := model.ShareTransaction{
		ID:               uuid.New().String(),
		Type:             model.TransactionTypePurchase,
		FractionalSongID: a.Song.ID,
		BuyerID:          buyerID,
		SharesQuantity:   quantity,
		PricePerShare:    price.Decimal(),
		TotalAmount:      totalAmount,
		Status:           model.TransactionStatusPending,
		CreatedAt:        now,
	}

	return transaction, ownership, nil
}

// Transfer moves quantity shares from sellerID to buyerID at an agreed
// price. The pool is untouched. Returns the pending transaction record and
// both updated holdings; sellerDrained reports that the seller's holding hit
// zero and must be deleted rather than updated.
func (a *OwnershipAggregate) Transfer(sellerID, buyerID string, quantity int64, price model.SharePrice, now time.Time) (model.ShareTransaction, model.ShareOwnership, model.ShareOwnership, bool, error) {
	var none model.ShareOwnership

	if sellerID == "" || buyerID == "" {
		return model.ShareTransaction{}, none, none, false, apperrors.ErrEmptyID
	}
	if sellerID == buyerID {
		return model.ShareTransaction{}, none, none, false,
			fmt.Errorf("%w: cannot transfer shares to yourself", apperrors.ErrBusinessRuleViolation)
	}
	if quantity <= 0 {
		return model.ShareTransaction{}, none, none, false, apperrors.ErrInvalidQuantity
	}

	seller := a.ownershipOf(sellerID)
	if seller == nil {
		return model.ShareTransaction{}, none, none, false, apperrors.ErrOwnershipNotFound
	}
	if seller.SharesOwned < quantity {
		return model.ShareTransaction{}, none, none, false, apperrors.ErrInsufficientShares
	}

	seller.SharesOwned -= quantity
	sellerDrained := seller.SharesOwned == 0

	buyer := a.applyAcquisition(buyerID, quantity, price.Decimal(), now)

	transaction := model.ShareTransaction{
		ID:               uuid.New().String(),
		Type:             model.TransactionTypeTransfer,
		FractionalSongID: a.Song.ID,
		BuyerID:          buyerID,
		SellerID:         sellerID,
		SharesQuantity:   quantity,
		PricePerShare:    price.Decimal(),
		TotalAmount:      price.MulQuantity(quantity),
		Status:           model.TransactionStatusPending,
		CreatedAt:        now,
	}

	return transaction, *seller, buyer, sellerDrained, nil
}

// applyAcquisition upserts a holding in memory: new holders get a fresh row,
// existing holders get added shares and a quantity-weighted average
// purchase price across all their acquisitions.
func (a *OwnershipAggregate) applyAcquisition(userID string, quantity int64, pricePerShare decimal.Decimal, now time.Time) model.ShareOwnership {
	if existing := a.ownershipOf(userID); existing != nil {
		oldShares := decimal.NewFromInt(existing.SharesOwned)
		newShares := decimal.NewFromInt(existing.SharesOwned + quantity)
		oldCost := existing.PurchasePrice.Mul(oldShares)
		addedCost := pricePerShare.Mul(decimal.NewFromInt(quantity))

		existing.SharesOwned += quantity
		existing.PurchasePrice = oldCost.Add(addedCost).Div(newShares)
		return *existing
	}

	ownership := model.ShareOwnership{
		ID:               uuid.New().String(),
		FractionalSongID: a.Song.ID,
		UserID:           userID,
		SharesOwned:      quantity,
		PurchasePrice:    pricePerShare,
		TotalEarnings:    decimal.Zero,
		PurchaseDate:     now,
	}
	a.Ownerships = append(a.Ownerships, ownership)
	return ownership
}

// NewContract validates and builds a fresh ownership contract. The fan pool
// starts fully available; nothing is sold at issue time.
func NewContract(songID, artistID, title string, totalShares, artistReservedShares int64, price model.SharePrice, revenuePct model.OwnershipPercentage, now time.Time) (model.FractionalSong, error) {
	if songID == "" || artistID == "" {
		return model.FractionalSong{}, apperrors.ErrEmptyID
	}
	if title == "" {
		return model.FractionalSong{}, apperrors.ErrMissingRequiredField
	}
	if totalShares <= 0 {
		return model.FractionalSong{}, apperrors.ErrInvalidQuantity
	}
	if totalShares > model.MaxTotalShares {
		return model.FractionalSong{}, fmt.Errorf("%w: total shares cannot exceed %d",
			apperrors.ErrBusinessRuleViolation, model.MaxTotalShares)
	}
	if artistReservedShares < 0 {
		return model.FractionalSong{}, fmt.Errorf("%w: reserved shares cannot be negative",
			apperrors.ErrBusinessRuleViolation)
	}
	if artistReservedShares >= totalShares {
		return model.FractionalSong{}, fmt.Errorf("%w: reserved shares must leave room for fan shares",
			apperrors.ErrBusinessRuleViolation)
	}

	fanShares := totalShares - artistReservedShares

	return model.FractionalSong{
		ID:                      uuid.New().String(),
		SongID:                  songID,
		ArtistID:                artistID,
		Title:                   title,
		TotalShares:             totalShares,
		ArtistReservedShares:    artistReservedShares,
		FanAvailableShares:      fanShares,
		AvailableShares:         fanShares,
		CurrentPricePerShare:    price.Decimal(),
		ArtistRevenuePercentage: revenuePct.Decimal(),
		CreatedAt:               now,
		UpdatedAt:               now,
	}, nil
}
