package orders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDeriveRecomputesSettlementTotals(t *testing.T) {
	fixed := enums.DiscountTypeFixed
	order := &models.Order{
		ID:                   uuid.New(),
		InvoiceDiscountType:  &fixed,
		InvoiceDiscountValue: dec("20.00"),
		Items: []models.OrderItem{
			{UnitPrice: dec("100.00"), Quantity: 2},
			{UnitPrice: dec("25.50"), Quantity: 1},
		},
		Payments: []models.Payment{
			{Amount: dec("150.00")},
			{Amount: dec("20.00")},
		},
	}

	derived := Derive(order)
	assert.Equal(t, "225.50", derived.ItemsSubtotal.StringFixed(2))
	assert.Equal(t, "20.00", derived.InvoiceDiscount.StringFixed(2))
	assert.Equal(t, "205.50", derived.OrderTotal.StringFixed(2))
	assert.Equal(t, "170.00", derived.ReceivedAmount.StringFixed(2))
	assert.Equal(t, "35.50", derived.BalanceDue.StringFixed(2))
}

func TestDeriveIsStableAcrossReads(t *testing.T) {
	pct := enums.DiscountTypePercentage
	order := &models.Order{
		InvoiceDiscountType:  &pct,
		InvoiceDiscountValue: dec("7"),
		Items: []models.OrderItem{
			{UnitPrice: dec("9.99"), Quantity: 1000},
			{UnitPrice: dec("0.01"), Quantity: 3},
		},
	}

	first := Derive(order)
	second := Derive(order)
	assert.True(t, first.OrderTotal.Equal(second.OrderTotal))
	assert.True(t, first.ItemsSubtotal.Equal(second.ItemsSubtotal))

	// the subtotal is an exact extension of stored unit prices
	want := dec("9.99").Mul(decimal.NewFromInt(1000)).Add(dec("0.03"))
	assert.True(t, first.ItemsSubtotal.Equal(want))
}

func TestDeriveNoDiscountNoPayments(t *testing.T) {
	order := &models.Order{
		Items: []models.OrderItem{{UnitPrice: dec("10.00"), Quantity: 3}},
	}

	derived := Derive(order)
	assert.Equal(t, "30.00", derived.OrderTotal.StringFixed(2))
	assert.True(t, derived.InvoiceDiscount.IsZero())
	assert.True(t, derived.ReceivedAmount.IsZero())
	assert.Equal(t, "30.00", derived.BalanceDue.StringFixed(2))
}

func TestDeriveOverDiscountClampsAtZero(t *testing.T) {
	fixed := enums.DiscountTypeFixed
	order := &models.Order{
		InvoiceDiscountType:  &fixed,
		InvoiceDiscountValue: dec("100.00"),
		Items:                []models.OrderItem{{UnitPrice: dec("10.00"), Quantity: 1}},
	}

	derived := Derive(order)
	assert.True(t, derived.OrderTotal.IsZero())
	assert.Equal(t, "10.00", derived.InvoiceDiscount.StringFixed(2))
}
