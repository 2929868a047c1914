package model

import (
	"github.com/shopspring/decimal"

	"github.com/tunevest/songshare-ledger/internal/apperrors"
)

// SharePrice is the price of a single share. Always strictly positive, exact
// decimal precision. The zero value is not a valid price; build one through
// NewSharePrice or ParseSharePrice.
type SharePrice struct {
	value decimal.Decimal
}

// NewSharePrice validates and wraps a decimal share price.
func NewSharePrice(value decimal.Decimal) (SharePrice, error) {
	if value.LessThanOrEqual(decimal.Zero) {
		return SharePrice{}, apperrors.ErrInvalidPrice
	}
	return SharePrice{value: value}, nil
}

// ParseSharePrice builds a SharePrice from its decimal string form.
func ParseSharePrice(s string) (SharePrice, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return SharePrice{}, apperrors.ErrInvalidPrice
	}
	return NewSharePrice(d)
}

func (p SharePrice) Decimal() decimal.Decimal { return p.value }

func (p SharePrice) String() string { return p.value.String() }

func (p SharePrice) Equal(other SharePrice) bool { return p.value.Equal(other.value) }

func (p SharePrice) GreaterThan(other SharePrice) bool { return p.value.GreaterThan(other.value) }

// MulQuantity is the one multiplication path for price times share count.
func (p SharePrice) MulQuantity(quantity int64) decimal.Decimal {
	return p.value.Mul(decimal.NewFromInt(quantity))
}

func (p SharePrice) MarshalJSON() ([]byte, error) { return p.value.MarshalJSON() }

func (p *SharePrice) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return apperrors.ErrInvalidPrice
	}
	parsed, err := NewSharePrice(d)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// OwnershipPercentage is a fraction in (0, 1]. Used for holder stakes and for
// the artist revenue percentage agreed at contract issue.
type OwnershipPercentage struct {
	value decimal.Decimal
}

// NewOwnershipPercentage validates and wraps a fractional percentage.
func NewOwnershipPercentage(value decimal.Decimal) (OwnershipPercentage, error) {
	if value.LessThanOrEqual(decimal.Zero) || value.GreaterThan(decimal.NewFromInt(1)) {
		return OwnershipPercentage{}, apperrors.ErrInvalidPercentage
	}
	return OwnershipPercentage{value: value}, nil
}

// OwnershipPercentageFromShares derives the stake of sharesOwned against the
// fan share pool. Percentages are never set directly.
func OwnershipPercentageFromShares(sharesOwned, poolShares int64) (OwnershipPercentage, error) {
	if poolShares <= 0 || sharesOwned <= 0 || sharesOwned > poolShares {
		return OwnershipPercentage{}, apperrors.ErrInvalidPercentage
	}
	return OwnershipPercentage{
		value: decimal.NewFromInt(sharesOwned).Div(decimal.NewFromInt(poolShares)),
	}, nil
}

// ParseOwnershipPercentage builds an OwnershipPercentage from its decimal string form.
func ParseOwnershipPercentage(s string) (OwnershipPercentage, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return OwnershipPercentage{}, apperrors.ErrInvalidPercentage
	}
	return NewOwnershipPercentage(d)
}

func (o OwnershipPercentage) Decimal() decimal.Decimal { return o.value }

func (o OwnershipPercentage) String() string { return o.value.String() }

func (o OwnershipPercentage) MarshalJSON() ([]byte, error) { return o.value.MarshalJSON() }

func (o *OwnershipPercentage) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return apperrors.ErrInvalidPercentage
	}
	parsed, err := NewOwnershipPercentage(d)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// RevenueAmount is a non-negative amount of money. Subtraction below zero is
// an error rather than a negative balance.
type RevenueAmount struct {
	value decimal.Decimal
}

// NewRevenueAmount validates and wraps a monetary amount.
func NewRevenueAmount(value decimal.Decimal) (RevenueAmount, error) {
	if value.IsNegative() {
		return RevenueAmount{}, apperrors.ErrInvalidAmount
	}
	return RevenueAmount{value: value}, nil
}

// ParseRevenueAmount builds a RevenueAmount from its decimal string form.
func ParseRevenueAmount(s string) (RevenueAmount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return RevenueAmount{}, apperrors.ErrInvalidAmount
	}
	return NewRevenueAmount(d)
}

func (a RevenueAmount) Decimal() decimal.Decimal { return a.value }

func (a RevenueAmount) String() string { return a.value.String() }

func (a RevenueAmount) IsZero() bool { return a.value.IsZero() }

func (a RevenueAmount) Add(other RevenueAmount) RevenueAmount {
	return RevenueAmount{value: a.value.Add(other.value)}
}

func (a RevenueAmount) Sub(other RevenueAmount) (RevenueAmount, error) {
	result := a.value.Sub(other.value)
	if result.IsNegative() {
		return RevenueAmount{}, apperrors.ErrInvalidAmount
	}
	return RevenueAmount{value: result}, nil
}

func (a RevenueAmount) MarshalJSON() ([]byte, error) { return a.value.MarshalJSON() }

func (a *RevenueAmount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return apperrors.ErrInvalidAmount
	}
	parsed, err := NewRevenueAmount(d)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
