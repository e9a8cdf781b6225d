package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type customerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

// Service exposes the sales cart staging operations.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*View, error)
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error)
	SetItemDiscount(ctx context.Context, userID, productID uuid.UUID, discount pricing.Discount) (*View, error)
	SetInvoiceDiscount(ctx context.Context, userID uuid.UUID, discount pricing.Discount) (*View, error)
	SetCustomer(ctx context.Context, userID uuid.UUID, customerID *uuid.UUID) (*View, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error)
	Get(ctx context.Context, userID uuid.UUID) (*View, error)
	Empty(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo      *Repository
	products  productLoader
	customers customerLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, products productLoader, customers customerLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer loader required")
	}
	return &service{repo: repo, products: products, customers: customers}, nil
}

// AddItemInput captures a register line add.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Discount  pricing.Discount
}

// AddItem appends a product to the cart, snapshotting its current price.
// Re-adding a product merges the quantity and replaces its discount.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*View, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if err := input.Discount.Validate(); err != nil {
		return nil, err
	}

	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	existing, err := s.repo.FindItem(ctx, cart.ID, input.ProductID)
	switch {
	case err == nil:
		merged := existing.Quantity + input.Quantity
		if err := ensureStock(product, merged); err != nil {
			return nil, err
		}
		existing.Quantity = merged
		existing.DiscountType = input.Discount.Type
		existing.DiscountValue = input.Discount.Value
		if err := s.repo.SaveItem(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart item")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := ensureStock(product, input.Quantity); err != nil {
			return nil, err
		}
		item := &models.CartItem{
			ID:            uuid.New(),
			CartID:        cart.ID,
			ProductID:     input.ProductID,
			Quantity:      input.Quantity,
			PriceAtAdd:    product.Price,
			DiscountType:  input.Discount.Type,
			DiscountValue: input.Discount.Value,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	return s.Get(ctx, userID)
}

// UpdateQuantity sets a line to an absolute quantity.
func (s *service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	item, err := s.loadLine(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := ensureStock(product, quantity); err != nil {
		return nil, err
	}

	item.Quantity = quantity
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.Get(ctx, userID)
}

// SetItemDiscount replaces a line's discount.
func (s *service) SetItemDiscount(ctx context.Context, userID, productID uuid.UUID, discount pricing.Discount) (*View, error) {
	if err := discount.Validate(); err != nil {
		return nil, err
	}

	item, err := s.loadLine(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	item.DiscountType = discount.Type
	item.DiscountValue = discount.Value
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update item discount")
	}
	return s.Get(ctx, userID)
}

// SetInvoiceDiscount replaces the cart-level discount applied after the
// items subtotal.
func (s *service) SetInvoiceDiscount(ctx context.Context, userID uuid.UUID, discount pricing.Discount) (*View, error) {
	if err := discount.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	cart.InvoiceDiscountType = discount.Type
	cart.InvoiceDiscountValue = discount.Value
	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice discount")
	}
	return s.Get(ctx, userID)
}

// SetCustomer attaches or clears the walk-in customer on the cart.
func (s *service) SetCustomer(ctx context.Context, userID uuid.UUID, customerID *uuid.UUID) (*View, error) {
	if customerID != nil {
		if _, err := s.customers.FindByID(ctx, *customerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}
	}

	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	cart.CustomerID = customerID
	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart customer")
	}
	return s.Get(ctx, userID)
}

// RemoveItem drops a line from the cart.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*View, error) {
	cart, err := s.findCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	removed, err := s.repo.DeleteItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return s.Get(ctx, userID)
}

// Get returns the cart with derived totals. A user with no cart yet gets
// an empty view rather than an error.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &View{Cart: models.Cart{UserID: userID}}, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	invoice := pricing.NewDiscount(cart.InvoiceDiscountType, cart.InvoiceDiscountValue)
	lines, totals, err := PriceItems(cart.Items, invoice)
	if err != nil {
		return nil, err
	}
	return &View{Cart: *cart, Lines: lines, Totals: totals}, nil
}

// Empty discards the user's cart entirely.
func (s *service) Empty(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "empty cart")
	}
	return nil
}

func (s *service) findCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) loadLine(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	cart, err := s.findCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, cart.ID, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
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

func ensureStock(product *models.Product, want int) error {
	if product.Stock >= want {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for "+product.Name).
		WithDetails(map[string]any{
			"product_id":   product.ID,
			"product_name": product.Name,
			"available":    product.Stock,
			"requested":    want,
		})
}
