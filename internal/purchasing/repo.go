package purchasing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

// Repository exposes persistence operations for the purchasing cart and
// received purchases.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a purchasing repository bound to the provided DB.
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

// ListCartItems returns the user's staged purchase lines, oldest first.
func (r *Repository) ListCartItems(ctx context.Context, userID uuid.UUID) ([]models.PurchaseCartItem, error) {
	var rows []models.PurchaseCartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindCartItem loads one staged line.
func (r *Repository) FindCartItem(ctx context.Context, userID, productID uuid.UUID) (*models.PurchaseCartItem, error) {
	var item models.PurchaseCartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateCartItem inserts a staged line.
func (r *Repository) CreateCartItem(ctx context.Context, item *models.PurchaseCartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// SaveCartItem persists mutable staged-line fields.
func (r *Repository) SaveCartItem(ctx context.Context, item *models.PurchaseCartItem) error {
	return r.db.WithContext(ctx).
		Model(&models.PurchaseCartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":          item.Quantity,
			"cost_price_at_add": item.CostPriceAtAdd,
			"discount_type":     item.DiscountType,
			"discount_value":    item.DiscountValue,
		}).Error
}

// DeleteCartItem removes a staged line and reports whether a row was deleted.
func (r *Repository) DeleteCartItem(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.PurchaseCartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteCart removes all staged lines for the user.
func (r *Repository) DeleteCart(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.PurchaseCartItem{}).Error
}

// InvoiceNumberExists reports whether a purchase already carries the
// invoice number.
func (r *Repository) InvoiceNumberExists(ctx context.Context, invoiceNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("invoice_number = ?", invoiceNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreatePurchase inserts a purchase header.
func (r *Repository) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

// CreatePurchaseItem inserts one received line.
func (r *Repository) CreatePurchaseItem(ctx context.Context, item *models.PurchaseItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// FindPurchaseByID loads a purchase with its lines.
func (r *Repository) FindPurchaseByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("created_at ASC") }).
		First(&purchase, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListPurchases returns purchases newest first with lines preloaded.
func (r *Repository) ListPurchases(ctx context.Context, limit, offset int) ([]models.Purchase, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Order("purchase_date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var rows []models.Purchase
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
