package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/internal/inventory"
	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/internal/till"
	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service settles a sales cart into an immutable order.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input Input) (*Result, error)
}

type service struct {
	tx    txRunner
	carts *cart.Repository
	tills *till.Repository
	cfg   config.CheckoutConfig
	log   *logger.Logger
}

// NewService builds the settlement engine backed by the provided stack.
func NewService(tx txRunner, carts *cart.Repository, tills *till.Repository, cfg config.CheckoutConfig, log *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tills == nil {
		return nil, fmt.Errorf("till repository required")
	}
	return &service{tx: tx, carts: carts, tills: tills, cfg: cfg, log: log}, nil
}

// PaymentInput is the optional payment taken at the register.
type PaymentInput struct {
	Amount decimal.Decimal
	Method enums.PaymentMethod
}

// Input carries the checkout payload. CustomerID overrides the customer
// staged on the cart when set.
type Input struct {
	CustomerID *uuid.UUID
	Payment    *PaymentInput
}

// Result is the settled order plus the totals it was priced at.
type Result struct {
	Order  models.Order
	Totals pricing.Totals
}

// Checkout converts the user's cart into an order in one transaction:
// stock is verified and decremented through guarded updates, line
// snapshots and the optional payment are created, and the cart is
// consumed. Any failure rolls the whole operation back.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input Input) (*Result, error) {
	if input.Payment != nil {
		if input.Payment.Amount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be non-negative")
		}
		if !input.Payment.Method.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
				WithDetails(map[string]any{"payment_method": string(input.Payment.Method)})
		}
	}

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		staged, err := carts.FindByUser(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(staged.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		invoice := pricing.NewDiscount(staged.InvoiceDiscountType, staged.InvoiceDiscountValue)
		lines, totals, err := cart.PriceItems(staged.Items, invoice)
		if err != nil {
			return err
		}

		customerID := staged.CustomerID
		if input.CustomerID != nil {
			customerID = input.CustomerID
		}

		order := models.Order{
			ID:                   uuid.New(),
			CustomerID:           customerID,
			UserID:               userID,
			InvoiceDiscountType:  staged.InvoiceDiscountType,
			InvoiceDiscountValue: staged.InvoiceDiscountValue,
			Status:               enums.OrderStatusCompleted,
			ReturnedAmount:       decimal.Zero,
		}
		if err := tx.WithContext(ctx).Create(&order).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for _, line := range lines {
			if err := inventory.Deduct(ctx, tx, line.Item.ProductID, line.Item.Quantity); err != nil {
				return err
			}

			item := models.OrderItem{
				ID:            uuid.New(),
				OrderID:       order.ID,
				ProductID:     line.Item.ProductID,
				Quantity:      line.Item.Quantity,
				UnitPrice:     line.UnitPrice,
				DiscountType:  line.Item.DiscountType,
				DiscountValue: line.Item.DiscountValue,
			}
			if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order item")
			}
			order.Items = append(order.Items, item)
		}

		if input.Payment != nil && input.Payment.Amount.IsPositive() {
			tillID, err := s.resolveTill(ctx, tx, userID)
			if err != nil {
				return err
			}

			payment := models.Payment{
				ID:      uuid.New(),
				OrderID: order.ID,
				UserID:  userID,
				TillID:  tillID,
				Method:  input.Payment.Method,
				Amount:  pricing.RoundMoney(input.Payment.Amount),
			}
			if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
			}
			order.Payments = append(order.Payments, payment)
		}

		if err := carts.DeleteByUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume cart")
		}

		result = &Result{Order: order, Totals: totals}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.log != nil {
		s.log.Info(s.log.WithOrderID(ctx, result.Order.ID.String()), "order settled")
	}
	return result, nil
}

// resolveTill finds the open till scoping this payment. When no till is
// open the configuration decides between rejecting the checkout and
// recording the payment unscoped.
func (s *service) resolveTill(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*uuid.UUID, error) {
	open, err := s.tills.WithTx(tx).FindOpenByUser(ctx, userID)
	if err == nil {
		return &open.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve open till")
	}
	if s.cfg.RequireOpenTill {
		return nil, pkgerrors.New(pkgerrors.CodeNoOpenTill, "no open till for user")
	}
	return nil, nil
}
