package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillpoint-backend/pkg/db/models"
)

// Repository exposes persistence operations for the per-user sales cart.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
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

// FindByUser loads the user's cart with its items, oldest item first.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("created_at ASC") }).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindOrCreateByUser returns the user's cart, creating an empty one when
// none exists yet.
func (r *Repository) FindOrCreateByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &models.Cart{ID: uuid.New(), UserID: userID}
	if err := r.db.WithContext(ctx).Create(fresh).Error; err != nil {
		return nil, err
	}
	return fresh, nil
}

// SaveCart persists header-level cart fields (customer, invoice discount).
func (r *Repository) SaveCart(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]any{
			"customer_id":            cart.CustomerID,
			"invoice_discount_type":  cart.InvoiceDiscountType,
			"invoice_discount_value": cart.InvoiceDiscountValue,
		}).Error
}

// FindItem loads a single cart line.
func (r *Repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// SaveItem persists mutable line fields.
func (r *Repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"quantity":       item.Quantity,
			"discount_type":  item.DiscountType,
			"discount_value": item.DiscountValue,
		}).Error
}

// DeleteItem removes a cart line and reports whether a row was deleted.
func (r *Repository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteByUser drops the user's cart; items cascade.
func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	var cart models.Cart
	err := tx.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Cart{}, "id = ?", cart.ID).Error
}
