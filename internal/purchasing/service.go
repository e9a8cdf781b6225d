package purchasing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/internal/inventory"
	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type supplierLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
}

// Service stages purchase lines and receives them into stock.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartView, error)
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error)
	SetItemDiscount(ctx context.Context, userID, productID uuid.UUID, discount pricing.Discount) (*CartView, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	EmptyCart(ctx context.Context, userID uuid.UUID) error
	Receive(ctx context.Context, userID uuid.UUID, input ReceiveInput) (*Detail, error)
	GetPurchase(ctx context.Context, id uuid.UUID) (*Detail, error)
	ListPurchases(ctx context.Context, limit, offset int) ([]Detail, error)
}

type service struct {
	repo      *Repository
	tx        txRunner
	products  productLoader
	suppliers supplierLoader
	now       func() time.Time
}

// NewService builds a purchasing service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, products productLoader, suppliers supplierLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchasing repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if suppliers == nil {
		return nil, fmt.Errorf("supplier loader required")
	}
	return &service{repo: repo, tx: tx, products: products, suppliers: suppliers, now: time.Now}, nil
}

// AddItemInput stages a line of incoming stock.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	// CostPrice overrides the catalog cost price snapshot when the
	// supplier invoice disagrees with it.
	CostPrice *decimal.Decimal
	Discount  pricing.Discount
}

// ReceiveInput carries the supplier invoice metadata for settlement.
type ReceiveInput struct {
	SupplierID      *uuid.UUID
	InvoiceNumber   string
	PurchaseDate    time.Time
	Notes           *string
	InvoiceDiscount pricing.Discount
	PaidAmount      decimal.Decimal
	PaymentStatus   enums.PaymentStatus
}

// PricedLine pairs a staged line with its resolved cost figures.
type PricedLine struct {
	Item      models.PurchaseCartItem
	UnitCost  decimal.Decimal
	LineTotal decimal.Decimal
}

// CartView is the purchasing cart with its derived cost subtotal.
type CartView struct {
	Lines         []PricedLine
	ItemsSubtotal decimal.Decimal
}

// Detail pairs a stored purchase with its recomputed totals.
type Detail struct {
	Purchase models.Purchase
	Derived  Derived
}

// AddItem stages incoming stock, merging quantity and replacing the
// discount when the product is already staged.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartView, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if err := input.Discount.Validate(); err != nil {
		return nil, err
	}
	if input.CostPrice != nil && input.CostPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost price must be non-negative")
	}

	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	cost := product.CostPrice
	if input.CostPrice != nil {
		cost = *input.CostPrice
	}

	existing, err := s.repo.FindCartItem(ctx, userID, input.ProductID)
	switch {
	case err == nil:
		existing.Quantity += input.Quantity
		existing.CostPriceAtAdd = cost
		existing.DiscountType = input.Discount.Type
		existing.DiscountValue = input.Discount.Value
		if err := s.repo.SaveCartItem(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge purchase cart item")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := &models.PurchaseCartItem{
			ID:             uuid.New(),
			UserID:         userID,
			ProductID:      input.ProductID,
			Quantity:       input.Quantity,
			CostPriceAtAdd: cost,
			DiscountType:   input.Discount.Type,
			DiscountValue:  input.Discount.Value,
		}
		if err := s.repo.CreateCartItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase cart item")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase cart item")
	}

	return s.GetCart(ctx, userID)
}

// UpdateQuantity sets a staged line to an absolute quantity.
func (s *service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.loadCartItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	item.Quantity = quantity
	if err := s.repo.SaveCartItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase cart item")
	}
	return s.GetCart(ctx, userID)
}

// SetItemDiscount replaces a staged line's discount.
func (s *service) SetItemDiscount(ctx context.Context, userID, productID uuid.UUID, discount pricing.Discount) (*CartView, error) {
	if err := discount.Validate(); err != nil {
		return nil, err
	}

	item, err := s.loadCartItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	item.DiscountType = discount.Type
	item.DiscountValue = discount.Value
	if err := s.repo.SaveCartItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase item discount")
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem drops a staged line.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartView, error) {
	removed, err := s.repo.DeleteCartItem(ctx, userID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove purchase cart item")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in purchase cart")
	}
	return s.GetCart(ctx, userID)
}

// GetCart returns the staged lines with derived cost totals.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	items, err := s.repo.ListCartItems(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase cart")
	}
	return priceCart(items)
}

// EmptyCart discards the user's staged lines.
func (s *service) EmptyCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteCart(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "empty purchase cart")
	}
	return nil
}

// Receive converts the staged cart into a purchase in one transaction:
// cost totals are aggregated, the paid amount is clamped to the final
// total, every line's stock is incremented and the cart is consumed.
func (s *service) Receive(ctx context.Context, userID uuid.UUID, input ReceiveInput) (*Detail, error) {
	if input.InvoiceNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice number is required")
	}
	if !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status").
			WithDetails(map[string]any{"payment_status": string(input.PaymentStatus)})
	}
	if input.PaidAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paid amount must be non-negative")
	}
	if err := input.InvoiceDiscount.Validate(); err != nil {
		return nil, err
	}
	if input.SupplierID != nil {
		if _, err := s.suppliers.FindByID(ctx, *input.SupplierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
		}
	}

	var created *models.Purchase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		items, err := repo.ListCartItems(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase cart")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "purchase cart is empty")
		}

		taken, err := repo.InvoiceNumberExists(ctx, input.InvoiceNumber)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check invoice number")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeDuplicateInvoice, "invoice number already recorded").
				WithDetails(map[string]any{"invoice_number": input.InvoiceNumber})
		}

		view, err := priceCart(items)
		if err != nil {
			return err
		}
		total := pricing.RoundMoney(pricing.Apply(view.ItemsSubtotal, input.InvoiceDiscount))

		paid := pricing.RoundMoney(input.PaidAmount)
		if paid.GreaterThan(total) {
			paid = total
		}

		purchaseDate := input.PurchaseDate
		if purchaseDate.IsZero() {
			purchaseDate = s.now()
		}

		purchase := models.Purchase{
			ID:                   uuid.New(),
			UserID:               userID,
			SupplierID:           input.SupplierID,
			InvoiceNumber:        input.InvoiceNumber,
			TotalAmount:          total,
			PaidAmount:           paid,
			PaymentStatus:        input.PaymentStatus,
			PurchaseDate:         purchaseDate,
			Notes:                input.Notes,
			InvoiceDiscountType:  input.InvoiceDiscount.Type,
			InvoiceDiscountValue: input.InvoiceDiscount.Value,
		}
		if err := repo.CreatePurchase(ctx, &purchase); err != nil {
			if pkgerrors.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeDuplicateInvoice, "invoice number already recorded")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase")
		}

		for _, line := range view.Lines {
			item := models.PurchaseItem{
				ID:            uuid.New(),
				PurchaseID:    purchase.ID,
				ProductID:     line.Item.ProductID,
				Quantity:      line.Item.Quantity,
				CostPrice:     line.UnitCost,
				DiscountType:  line.Item.DiscountType,
				DiscountValue: line.Item.DiscountValue,
			}
			if err := repo.CreatePurchaseItem(ctx, &item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase item")
			}
			purchase.Items = append(purchase.Items, item)

			if err := inventory.Restock(ctx, tx, line.Item.ProductID, line.Item.Quantity); err != nil {
				return err
			}
		}

		if err := repo.DeleteCart(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume purchase cart")
		}

		created = &purchase
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Detail{Purchase: *created, Derived: Derive(created)}, nil
}

// GetPurchase loads one received purchase with recomputed totals.
func (s *service) GetPurchase(ctx context.Context, id uuid.UUID) (*Detail, error) {
	purchase, err := s.repo.FindPurchaseByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	return &Detail{Purchase: *purchase, Derived: Derive(purchase)}, nil
}

// ListPurchases lists received purchases with recomputed totals.
func (s *service) ListPurchases(ctx context.Context, limit, offset int) ([]Detail, error) {
	rows, err := s.repo.ListPurchases(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}

	details := make([]Detail, 0, len(rows))
	for i := range rows {
		details = append(details, Detail{Purchase: rows[i], Derived: Derive(&rows[i])})
	}
	return details, nil
}

func priceCart(items []models.PurchaseCartItem) (*CartView, error) {
	view := &CartView{Lines: make([]PricedLine, 0, len(items)), ItemsSubtotal: decimal.Zero}
	for _, item := range items {
		unit, total, err := pricing.PriceLine(
			item.CostPriceAtAdd,
			item.Quantity,
			pricing.NewDiscount(item.DiscountType, item.DiscountValue),
		)
		if err != nil {
			return nil, err
		}
		view.Lines = append(view.Lines, PricedLine{Item: item, UnitCost: unit, LineTotal: total})
		view.ItemsSubtotal = view.ItemsSubtotal.Add(total)
	}
	return view, nil
}

func (s *service) loadCartItem(ctx context.Context, userID, productID uuid.UUID) (*models.PurchaseCartItem, error) {
	item, err := s.repo.FindCartItem(ctx, userID, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in purchase cart")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase cart item")
	}
	return item, nil
}

func (s *service) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}
