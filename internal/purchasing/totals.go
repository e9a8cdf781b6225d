package purchasing

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

// Derived is the monetary view of a purchase recomputed from its stored
// line snapshots, mirroring the order read model.
type Derived struct {
	ItemsSubtotal          decimal.Decimal
	InvoiceDiscount        decimal.Decimal
	TotalCostAfterDiscount decimal.Decimal
	BalanceDue             decimal.Decimal
}

// Derive recomputes a purchase's cost totals from its line snapshots.
func Derive(purchase *models.Purchase) Derived {
	// CostPrice is the post-item-discount unit cost, so lines extend
	// without re-applying the stored discount spec.
	subtotal := decimal.Zero
	for _, item := range purchase.Items {
		subtotal = subtotal.Add(pricing.LineTotal(item.CostPrice, item.Quantity))
	}

	invoice := pricing.NewDiscount(purchase.InvoiceDiscountType, purchase.InvoiceDiscountValue)
	discount := pricing.RoundMoney(pricing.Amount(subtotal, invoice))
	total := pricing.RoundMoney(pricing.Apply(subtotal, invoice))

	return Derived{
		ItemsSubtotal:          subtotal,
		InvoiceDiscount:        discount,
		TotalCostAfterDiscount: total,
		BalanceDue:             total.Sub(purchase.PaidAmount),
	}
}
