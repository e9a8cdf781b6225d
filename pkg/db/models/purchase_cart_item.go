package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// PurchaseCartItem stages incoming stock lines per user before a purchase
// is received. Cost price is snapshotted at add time.
type PurchaseCartItem struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID           `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_purchase_cart_user_product"`
	ProductID      uuid.UUID           `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_purchase_cart_user_product"`
	Quantity       int                 `gorm:"column:quantity;not null"`
	CostPriceAtAdd decimal.Decimal     `gorm:"column:cost_price_at_add;type:numeric(10,2);not null"`
	DiscountType   *enums.DiscountType `gorm:"column:discount_type;type:text"`
	DiscountValue  decimal.Decimal     `gorm:"column:discount_value;type:numeric(10,2);not null;default:0"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
