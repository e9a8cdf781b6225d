package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

// Repository exposes persistence operations for settled orders.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads an order with its line and payment snapshots.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("created_at ASC") }).
		Preload("Payments", func(q *gorm.DB) *gorm.DB { return q.Order("created_at ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders newest first with their snapshots preloaded.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var rows []models.Order
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveReturnState persists the only order fields that mutate after
// settlement.
func (r *Repository) SaveReturnState(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":          order.Status,
			"returned_amount": order.ReturnedAmount,
		}).Error
}

// SaveItemReturnedQuantity persists a line's cumulative returned quantity.
func (r *Repository) SaveItemReturnedQuantity(ctx context.Context, item *models.OrderItem) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", item.ID).
		Update("quantity_returned", item.QuantityReturned).Error
}
