package pricing

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

// UnitPriceAfterDiscount applies the item discount to a single unit and
// rounds to money precision. The discount is applied per unit and only
// then extended by quantity; applying it to the pre-multiplied line
// subtotal instead drifts by fractions of a cent at large quantities,
// so the per-unit order is the canonical rule throughout the engine.
func UnitPriceAfterDiscount(unitPrice decimal.Decimal, d Discount) decimal.Decimal {
	return RoundMoney(Apply(unitPrice, d))
}

// LineTotal extends a post-discount unit price by quantity.
func LineTotal(unitPriceAfterDiscount decimal.Decimal, quantity int) decimal.Decimal {
	return RoundMoney(unitPriceAfterDiscount.Mul(decimal.NewFromInt(int64(quantity))))
}

// PriceLine computes both derived values for one line, validating inputs.
func PriceLine(unitPrice decimal.Decimal, quantity int, d Discount) (unit, total decimal.Decimal, err error) {
	if quantity < 1 {
		return decimal.Zero, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": quantity})
	}
	if unitPrice.IsNegative() {
		return decimal.Zero, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	if err := d.Validate(); err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	unit = UnitPriceAfterDiscount(unitPrice, d)
	return unit, LineTotal(unit, quantity), nil
}
