package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Discount is a tagged percentage-or-fixed reduction. A nil Type means no
// discount.
type Discount struct {
	Type  *enums.DiscountType
	Value decimal.Decimal
}

// NewDiscount builds a Discount from optional persisted columns.
func NewDiscount(kind *enums.DiscountType, value decimal.Decimal) Discount {
	return Discount{Type: kind, Value: value}
}

// Percentage is a convenience constructor used by tests and callers.
func Percentage(value decimal.Decimal) Discount {
	kind := enums.DiscountTypePercentage
	return Discount{Type: &kind, Value: value}
}

// Fixed is a convenience constructor used by tests and callers.
func Fixed(value decimal.Decimal) Discount {
	kind := enums.DiscountTypeFixed
	return Discount{Type: &kind, Value: value}
}

// None reports whether the discount is absent.
func (d Discount) None() bool {
	return d.Type == nil
}

// Validate rejects unknown kinds and negative values at the boundary.
func (d Discount) Validate() error {
	if d.Type != nil && !d.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown discount type").
			WithDetails(map[string]any{"type": string(*d.Type)})
	}
	if d.Value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must not be negative")
	}
	return nil
}

// Apply reduces base by the discount and clamps the result at zero. It
// performs no rounding; callers round where the value is persisted or
// displayed.
func Apply(base decimal.Decimal, d Discount) decimal.Decimal {
	if d.Type == nil {
		return base
	}

	var result decimal.Decimal
	switch *d.Type {
	case enums.DiscountTypePercentage:
		result = base.Sub(base.Mul(d.Value.Div(oneHundred)))
	case enums.DiscountTypeFixed:
		result = base.Sub(d.Value)
	default:
		result = base
	}

	if result.IsNegative() {
		return decimal.Zero
	}
	return result
}

// Amount returns how much the discount removes from base, clamped so it
// never exceeds base.
func Amount(base decimal.Decimal, d Discount) decimal.Decimal {
	return base.Sub(Apply(base, d))
}

// RoundMoney normalizes a monetary value to two fractional digits,
// rounding halves up.
func RoundMoney(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
