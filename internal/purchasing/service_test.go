package purchasing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/internal/products"
	"github.com/angelmondragon/tillpoint-backend/internal/suppliers"
	"github.com/angelmondragon/tillpoint-backend/pkg/db"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

type fixture struct {
	conn   *gorm.DB
	svc    Service
	userID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:purchasing_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Product{}, &models.Supplier{},
		&models.PurchaseCartItem{}, &models.Purchase{}, &models.PurchaseItem{},
	))

	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn),
		products.NewRepository(conn), suppliers.NewRepository(conn))
	require.NoError(t, err)
	return &fixture{conn: conn, svc: svc, userID: uuid.New()}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) seedProduct(t *testing.T, name, costPrice string, stock int) models.Product {
	t.Helper()
	product := models.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     dec("10.00"),
		CostPrice: dec(costPrice),
		Stock:     stock,
	}
	require.NoError(t, f.conn.Create(&product).Error)
	return product
}

func (f *fixture) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, f.conn.First(&product, "id = ?", productID).Error)
	return product.Stock
}

func TestAddItemSnapshotsCostAndMerges(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Beans Sack", "40.00", 0)

	view, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: product.ID, Quantity: 3})
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "40.00", view.Lines[0].Item.CostPriceAtAdd.StringFixed(2))
	assert.Equal(t, "120.00", view.ItemsSubtotal.StringFixed(2))

	override := dec("38.00")
	view, err = f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: product.ID, Quantity: 2, CostPrice: &override})
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 5, view.Lines[0].Item.Quantity)
	assert.Equal(t, "38.00", view.Lines[0].Item.CostPriceAtAdd.StringFixed(2))
	assert.Equal(t, "190.00", view.ItemsSubtotal.StringFixed(2))
}

func TestReceiveIncrementsStockAndConsumesCart(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	beans := f.seedProduct(t, "Beans Sack", "40.00", 2)
	cups := f.seedProduct(t, "Cup Case", "12.50", 0)

	supplier := models.Supplier{ID: uuid.New(), FullName: "Roastery Co"}
	require.NoError(t, f.conn.Create(&supplier).Error)

	_, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: beans.ID, Quantity: 5})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: cups.ID, Quantity: 4})
	require.NoError(t, err)

	// subtotal 250.00, fixed invoice discount 25.00 -> total 225.00
	detail, err := f.svc.Receive(ctx, f.userID, ReceiveInput{
		SupplierID:      &supplier.ID,
		InvoiceNumber:   "INV-1001",
		InvoiceDiscount: pricing.Fixed(dec("25.00")),
		PaidAmount:      dec("100.00"),
		PaymentStatus:   enums.PaymentStatusPartiallyPaid,
	})
	require.NoError(t, err)

	assert.Equal(t, "225.00", detail.Purchase.TotalAmount.StringFixed(2))
	assert.Equal(t, "100.00", detail.Purchase.PaidAmount.StringFixed(2))
	assert.Equal(t, "125.00", detail.Derived.BalanceDue.StringFixed(2))
	assert.Equal(t, "250.00", detail.Derived.ItemsSubtotal.StringFixed(2))
	require.Len(t, detail.Purchase.Items, 2)

	assert.Equal(t, 7, f.stock(t, beans.ID))
	assert.Equal(t, 4, f.stock(t, cups.ID))

	view, err := f.svc.GetCart(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
}

func TestReceiveClampsPaidAmountToTotal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Lids", "2.00", 0)

	_, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: product.ID, Quantity: 10})
	require.NoError(t, err)

	detail, err := f.svc.Receive(ctx, f.userID, ReceiveInput{
		InvoiceNumber: "INV-2002",
		PaidAmount:    dec("999.00"),
		PaymentStatus: enums.PaymentStatusPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, "20.00", detail.Purchase.PaidAmount.StringFixed(2))
	assert.True(t, detail.Derived.BalanceDue.IsZero())
}

func TestReceiveEmptyCart(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Receive(context.Background(), f.userID, ReceiveInput{
		InvoiceNumber: "INV-3003",
		PaymentStatus: enums.PaymentStatusPending,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeEmptyCart, pkgerrors.As(err).Code())
}

func TestReceiveDuplicateInvoiceRollsBack(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Syrup", "6.00", 1)

	_, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.Receive(ctx, f.userID, ReceiveInput{
		InvoiceNumber: "INV-4004",
		PaymentStatus: enums.PaymentStatusPending,
	})
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: product.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = f.svc.Receive(ctx, f.userID, ReceiveInput{
		InvoiceNumber: "INV-4004",
		PaymentStatus: enums.PaymentStatusPending,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDuplicateInvoice, pkgerrors.As(err).Code())

	// the rejected receive must not touch stock or consume the cart
	assert.Equal(t, 3, f.stock(t, product.ID))
	view, err := f.svc.GetCart(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 3, view.Lines[0].Item.Quantity)
}

func TestReceiveWithItemDiscounts(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Filters", "5.00", 0)

	_, err := f.svc.AddItem(ctx, f.userID, AddItemInput{
		ProductID: product.ID,
		Quantity:  10,
		Discount:  pricing.Percentage(dec("20")),
	})
	require.NoError(t, err)

	detail, err := f.svc.Receive(ctx, f.userID, ReceiveInput{
		InvoiceNumber: "INV-5005",
		PaymentStatus: enums.PaymentStatusPending,
	})
	require.NoError(t, err)

	// 5.00 at 20% off -> 4.00 per unit, times 10
	assert.Equal(t, "40.00", detail.Purchase.TotalAmount.StringFixed(2))
	require.Len(t, detail.Purchase.Items, 1)
	assert.Equal(t, "4.00", detail.Purchase.Items[0].CostPrice.StringFixed(2))

	reloaded, err := f.svc.GetPurchase(ctx, detail.Purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, "40.00", reloaded.Derived.TotalCostAfterDiscount.StringFixed(2))
}

func TestUpdateQuantityAndRemove(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Napkins", "1.00", 0)

	_, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	view, err := f.svc.UpdateQuantity(ctx, f.userID, product.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, "7.00", view.ItemsSubtotal.StringFixed(2))

	view, err = f.svc.RemoveItem(ctx, f.userID, product.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	_, err = f.svc.RemoveItem(ctx, f.userID, product.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListPurchases(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Stirrers", "0.50", 0)

	for _, invoice := range []string{"INV-A", "INV-B"} {
		_, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: product.ID, Quantity: 2})
		require.NoError(t, err)
		_, err = f.svc.Receive(ctx, f.userID, ReceiveInput{
			InvoiceNumber: invoice,
			PaymentStatus: enums.PaymentStatusPaid,
			PaidAmount:    dec("1.00"),
		})
		require.NoError(t, err)
	}

	rows, err := f.svc.ListPurchases(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
