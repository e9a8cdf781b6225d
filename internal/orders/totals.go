package orders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

// Derived is the monetary view of an order recomputed from its stored
// snapshots. Nothing here is persisted except the snapshot basis itself,
// so re-reading an order always reproduces the totals it settled at.
type Derived struct {
	ItemsSubtotal   decimal.Decimal
	InvoiceDiscount decimal.Decimal
	OrderTotal      decimal.Decimal
	ReceivedAmount  decimal.Decimal
	BalanceDue      decimal.Decimal
}

// Derive recomputes an order's totals from its line and payment
// snapshots. Line totals extend the stored post-discount unit price, so
// the sum is drift-free against what settlement computed.
func Derive(order *models.Order) Derived {
	subtotal := decimal.Zero
	for _, item := range order.Items {
		subtotal = subtotal.Add(pricing.LineTotal(item.UnitPrice, item.Quantity))
	}

	invoice := pricing.NewDiscount(order.InvoiceDiscountType, order.InvoiceDiscountValue)
	discount := pricing.RoundMoney(pricing.Amount(subtotal, invoice))
	total := pricing.RoundMoney(pricing.Apply(subtotal, invoice))

	received := decimal.Zero
	for _, payment := range order.Payments {
		received = received.Add(payment.Amount)
	}

	return Derived{
		ItemsSubtotal:   subtotal,
		InvoiceDiscount: discount,
		OrderTotal:      total,
		ReceivedAmount:  received,
		BalanceDue:      total.Sub(received),
	}
}
