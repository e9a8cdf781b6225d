package pricing

import "github.com/shopspring/decimal"

// Line is the minimal shape the aggregator needs; the unit price is
// already post-item-discount.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals summarizes a cart, order or purchase. ItemsSubtotal sums the
// extended line totals; GrandTotal applies the invoice discount on top.
type Totals struct {
	ItemsSubtotal   decimal.Decimal
	InvoiceDiscount decimal.Decimal
	GrandTotal      decimal.Decimal
}

// Subtotal sums extended line totals.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(LineTotal(line.UnitPrice, line.Quantity))
	}
	return sum
}

// Aggregate computes cart-level totals. The same function serves sales
// carts, purchasing carts, and stored order/purchase snapshots.
func Aggregate(lines []Line, invoice Discount) Totals {
	subtotal := Subtotal(lines)
	grand := RoundMoney(Apply(subtotal, invoice))
	if grand.IsNegative() {
		grand = decimal.Zero
	}
	return Totals{
		ItemsSubtotal:   subtotal,
		InvoiceDiscount: subtotal.Sub(grand),
		GrandTotal:      grand,
	}
}
