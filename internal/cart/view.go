package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

// PricedLine pairs a stored cart line with its resolved unit price and
// extended total.
type PricedLine struct {
	Item      models.CartItem
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// View is the cart as presented to the register: stored lines plus the
// totals derived from them on every read.
type View struct {
	Cart   models.Cart
	Lines  []PricedLine
	Totals pricing.Totals
}

// PriceItems resolves every line's discount against its snapshot price
// and aggregates the invoice-level totals. Checkout uses the same
// routine, so the preview a cashier sees is the amount that settles.
func PriceItems(items []models.CartItem, invoice pricing.Discount) ([]PricedLine, pricing.Totals, error) {
	priced := make([]PricedLine, 0, len(items))
	lines := make([]pricing.Line, 0, len(items))

	for _, item := range items {
		unit, total, err := pricing.PriceLine(
			item.PriceAtAdd,
			item.Quantity,
			pricing.NewDiscount(item.DiscountType, item.DiscountValue),
		)
		if err != nil {
			return nil, pricing.Totals{}, err
		}
		priced = append(priced, PricedLine{Item: item, UnitPrice: unit, LineTotal: total})
		lines = append(lines, pricing.Line{UnitPrice: unit, Quantity: item.Quantity})
	}

	return priced, pricing.Aggregate(lines, invoice), nil
}
