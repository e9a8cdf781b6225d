package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/internal/inventory"
	"github.com/angelmondragon/tillpoint-backend/internal/orders"
	"github.com/angelmondragon/tillpoint-backend/internal/pricing"
	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillpoint-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service reverses settled orders, fully or line by line.
type Service interface {
	Start(ctx context.Context, orderID uuid.UUID) (*orders.Detail, error)
	Process(ctx context.Context, userID uuid.UUID, input ProcessInput) (*Result, error)
}

type service struct {
	tx     txRunner
	orders *orders.Repository
	cfg    config.ReturnsConfig
	now    func() time.Time
}

// NewService builds the return engine backed by the provided stack.
func NewService(tx txRunner, orderRepo *orders.Repository, cfg config.ReturnsConfig) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{tx: tx, orders: orderRepo, cfg: cfg, now: time.Now}, nil
}

// ReturnLine requests a partial return of one order line.
type ReturnLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// ProcessInput carries the return request.
type ProcessInput struct {
	OrderID uuid.UUID
	Type    enums.SaleReturnType
	Items   []ReturnLine
	Notes   *string
}

// Result is the recorded return plus the order state it left behind.
type Result struct {
	SaleReturn models.SaleReturn
	Order      models.Order
}

// Start verifies an order is eligible for return without mutating
// anything: it must exist and still be inside the return window.
func (s *service) Start(ctx context.Context, orderID uuid.UUID) (*orders.Detail, error) {
	order, err := s.loadOrder(ctx, s.orders, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.checkWindow(order); err != nil {
		return nil, err
	}
	return &orders.Detail{Order: *order, Derived: orders.Derive(order)}, nil
}

// Process executes the return atomically: refund computation, restock,
// per-line returned-quantity bookkeeping and order status recompute all
// commit or roll back together.
func (s *service) Process(ctx context.Context, userID uuid.UUID, input ProcessInput) (*Result, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown return type").
			WithDetails(map[string]any{"type": string(input.Type)})
	}
	if input.Type == enums.SaleReturnTypePartial && len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partial return requires at least one item")
	}

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if err := s.checkWindow(order); err != nil {
			return err
		}
		if order.Status == enums.OrderStatusFullyReturned {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order already fully returned")
		}

		var refund decimal.Decimal
		var returnItems []models.SaleReturnItem
		switch input.Type {
		case enums.SaleReturnTypeFull:
			refund, returnItems, err = s.processFull(ctx, tx, repo, order)
		case enums.SaleReturnTypePartial:
			refund, returnItems, err = s.processPartial(ctx, tx, repo, order, input.Items)
		}
		if err != nil {
			return err
		}

		if err := repo.SaveReturnState(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order return state")
		}

		record := models.SaleReturn{
			ID:                uuid.New(),
			OrderID:           order.ID,
			Type:              input.Type,
			ReturnDate:        s.now(),
			TotalRefundAmount: refund,
			UserID:            userID,
			Notes:             input.Notes,
		}
		if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale return")
		}
		for i := range returnItems {
			returnItems[i].SaleReturnID = record.ID
			if err := tx.WithContext(ctx).Create(&returnItems[i]).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sale return item")
			}
		}
		record.Items = returnItems

		result = &Result{SaleReturn: record, Order: *order}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// processFull restocks every line's remaining quantity and refunds the
// order's full discounted total.
func (s *service) processFull(ctx context.Context, tx *gorm.DB, repo *orders.Repository, order *models.Order) (decimal.Decimal, []models.SaleReturnItem, error) {
	var items []models.SaleReturnItem
	for i := range order.Items {
		line := &order.Items[i]
		remaining := line.Quantity - line.QuantityReturned
		if remaining <= 0 {
			continue
		}

		if err := inventory.Restock(ctx, tx, line.ProductID, remaining); err != nil {
			return decimal.Zero, nil, err
		}
		line.QuantityReturned = line.Quantity
		if err := repo.SaveItemReturnedQuantity(ctx, line); err != nil {
			return decimal.Zero, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update returned quantity")
		}

		items = append(items, models.SaleReturnItem{
			ID:            uuid.New(),
			ProductID:     line.ProductID,
			Quantity:      remaining,
			PriceAtReturn: line.UnitPrice,
		})
	}

	refund := orders.Derive(order).OrderTotal
	order.Status = enums.OrderStatusFullyReturned
	order.ReturnedAmount = refund
	return refund, items, nil
}

// processPartial refunds the requested quantities, allocating the
// invoice-level discount proportionally to each returned line's share of
// the raw items subtotal.
func (s *service) processPartial(ctx context.Context, tx *gorm.DB, repo *orders.Repository, order *models.Order, requested []ReturnLine) (decimal.Decimal, []models.SaleReturnItem, error) {
	derived := orders.Derive(order)
	rawSubtotal := derived.ItemsSubtotal
	totalDiscount := derived.InvoiceDiscount

	byProduct := make(map[uuid.UUID]*models.OrderItem, len(order.Items))
	for i := range order.Items {
		byProduct[order.Items[i].ProductID] = &order.Items[i]
	}

	var refund decimal.Decimal
	var items []models.SaleReturnItem
	for _, req := range requested {
		if req.Quantity < 1 {
			return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeValidation, "return quantity must be at least 1")
		}

		line, ok := byProduct[req.ProductID]
		if !ok {
			return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeProductNotInOrder, "product is not part of the order").
				WithDetails(map[string]any{"product_id": req.ProductID})
		}

		remaining := line.Quantity - line.QuantityReturned
		if req.Quantity > remaining {
			return decimal.Zero, nil, pkgerrors.New(pkgerrors.CodeOverReturn, "return quantity exceeds remaining quantity").
				WithDetails(map[string]any{
					"product_id": req.ProductID,
					"requested":  req.Quantity,
					"remaining":  remaining,
				})
		}

		itemSubtotal := pricing.LineTotal(line.UnitPrice, req.Quantity)
		lineRefund := itemSubtotal
		if rawSubtotal.IsPositive() && totalDiscount.IsPositive() {
			ratio := itemSubtotal.Div(rawSubtotal)
			attributable := totalDiscount.Mul(ratio)
			lineRefund = itemSubtotal.Sub(attributable)
			if lineRefund.IsNegative() {
				lineRefund = decimal.Zero
			}
		}
		refund = refund.Add(pricing.RoundMoney(lineRefund))

		if err := inventory.Restock(ctx, tx, req.ProductID, req.Quantity); err != nil {
			return decimal.Zero, nil, err
		}
		line.QuantityReturned += req.Quantity
		if err := repo.SaveItemReturnedQuantity(ctx, line); err != nil {
			return decimal.Zero, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update returned quantity")
		}

		items = append(items, models.SaleReturnItem{
			ID:            uuid.New(),
			ProductID:     req.ProductID,
			Quantity:      req.Quantity,
			PriceAtReturn: line.UnitPrice,
		})
	}

	order.ReturnedAmount = order.ReturnedAmount.Add(refund)
	order.Status = enums.OrderStatusPartiallyReturned
	if allReturned(order.Items) {
		order.Status = enums.OrderStatusFullyReturned
	}
	return refund, items, nil
}

func allReturned(items []models.OrderItem) bool {
	for _, item := range items {
		if item.QuantityReturned < item.Quantity {
			return false
		}
	}
	return true
}

func (s *service) loadOrder(ctx context.Context, repo *orders.Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) checkWindow(order *models.Order) error {
	age := s.now().Sub(order.CreatedAt)
	window := s.cfg.Window()
	if age <= window {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeReturnWindowExpired, "return window has expired").
		WithDetails(map[string]any{
			"window_days": s.cfg.WindowDays,
			"order_age":   age.String(),
		})
}
