package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/internal/customers"
	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/internal/products"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

type cartFixture struct {
	db     *gorm.DB
	svc    Service
	userID uuid.UUID
}

func newFixture(t *testing.T) *cartFixture {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.Customer{}, &models.Cart{}, &models.CartItem{},
	))

	svc, err := NewService(NewRepository(db), products.NewRepository(db), customers.NewRepository(db))
	require.NoError(t, err)

	return &cartFixture{db: db, svc: svc, userID: uuid.New()}
}

func (f *cartFixture) seedProduct(t *testing.T, name, price string, stock int) models.Product {
	t.Helper()
	product := models.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     decimal.RequireFromString(price),
		CostPrice: decimal.RequireFromString("1.00"),
		Stock:     stock,
	}
	require.NoError(t, f.db.Create(&product).Error)
	return product
}

func TestAddItemCreatesCartAndSnapshotsPrice(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Latte", "4.50", 10)

	view, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, "4.50", view.Lines[0].Item.PriceAtAdd.StringFixed(2))
	assert.Equal(t, "9.00", view.Totals.GrandTotal.StringFixed(2))

	// later catalog price changes must not affect the staged line
	require.NoError(t, f.db.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Update("price", decimal.RequireFromString("6.00")).Error)

	view, err = f.svc.Get(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, "9.00", view.Totals.GrandTotal.StringFixed(2))
}

func TestAddItemMergesQuantityAndReplacesDiscount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Mocha", "5.00", 10)

	_, err := f.svc.AddItem(ctx, f.userID, AddItemInput{
		ProductID: product.ID,
		Quantity:  2,
		Discount:  pricing.Percentage(decimal.NewFromInt(10)),
	})
	require.NoError(t, err)

	view, err := f.svc.AddItem(ctx, f.userID, AddItemInput{
		ProductID: product.ID,
		Quantity:  3,
		Discount:  pricing.Fixed(decimal.NewFromInt(1)),
	})
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	line := view.Lines[0]
	assert.Equal(t, 5, line.Item.Quantity)
	// 5.00 - 1.00 fixed, times 5
	assert.Equal(t, "4.00", line.UnitPrice.StringFixed(2))
	assert.Equal(t, "20.00", view.Totals.GrandTotal.StringFixed(2))
}

func TestAddItemInsufficientStock(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Croissant", "3.00", 2)

	_, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	// merged quantity 3 exceeds the 2 on hand
	_, err = f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: product.ID, Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.As(err).Code())
}

func TestAddItemUnknownProduct(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.AddItem(context.Background(), f.userID, AddItemInput{ProductID: uuid.New(), Quantity: 1})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateQuantity(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Bagel", "2.00", 5)

	_, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	view, err := f.svc.UpdateQuantity(ctx, f.userID, product.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, "8.00", view.Totals.GrandTotal.StringFixed(2))

	_, err = f.svc.UpdateQuantity(ctx, f.userID, product.ID, 6)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.As(err).Code())

	_, err = f.svc.UpdateQuantity(ctx, f.userID, product.ID, 0)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestSetInvoiceDiscountChangesTotals(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Beans 1kg", "100.00", 10)

	_, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	view, err := f.svc.SetInvoiceDiscount(ctx, f.userID, pricing.Fixed(decimal.NewFromInt(20)))
	require.NoError(t, err)
	assert.Equal(t, "200.00", view.Totals.ItemsSubtotal.StringFixed(2))
	assert.Equal(t, "20.00", view.Totals.InvoiceDiscount.StringFixed(2))
	assert.Equal(t, "180.00", view.Totals.GrandTotal.StringFixed(2))
}

func TestSetCustomer(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	customer := models.Customer{ID: uuid.New(), FirstName: "Alex", LastName: "Reyes"}
	require.NoError(t, f.db.Create(&customer).Error)

	view, err := f.svc.SetCustomer(ctx, f.userID, &customer.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Cart.CustomerID)
	assert.Equal(t, customer.ID, *view.Cart.CustomerID)

	view, err = f.svc.SetCustomer(ctx, f.userID, nil)
	require.NoError(t, err)
	assert.Nil(t, view.Cart.CustomerID)

	bogus := uuid.New()
	_, err = f.svc.SetCustomer(ctx, f.userID, &bogus)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestRemoveItem(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Muffin", "2.50", 5)

	_, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	view, err := f.svc.RemoveItem(ctx, f.userID, product.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	_, err = f.svc.RemoveItem(ctx, f.userID, product.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestGetWithoutCartReturnsEmptyView(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	view, err := f.svc.Get(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Totals.GrandTotal.IsZero())
}

func TestEmptyDiscardsCart(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Tea", "3.00", 5)

	_, err := f.svc.AddItem(ctx, f.userID, AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, f.svc.Empty(ctx, f.userID))

	view, err := f.svc.Get(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	// emptying an absent cart is a no-op
	require.NoError(t, f.svc.Empty(ctx, f.userID))
}
