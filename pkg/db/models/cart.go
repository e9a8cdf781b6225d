package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// Cart is the per-user sales staging area. It is created lazily on the
// first item add and deleted when checkout consumes it.
type Cart struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID               uuid.UUID           `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	CustomerID           *uuid.UUID          `gorm:"column:customer_id;type:uuid"`
	InvoiceDiscountType  *enums.DiscountType `gorm:"column:invoice_discount_type;type:text"`
	InvoiceDiscountValue decimal.Decimal     `gorm:"column:invoice_discount_value;type:numeric(10,2);not null;default:0"`
	Items                []CartItem          `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItem snapshots the product price at add time. Unique per product;
// re-adding the same product merges quantity and replaces the discount.
type CartItem struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CartID        uuid.UUID           `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_product"`
	Quantity      int                 `gorm:"column:quantity;not null"`
	PriceAtAdd    decimal.Decimal     `gorm:"column:price_at_add;type:numeric(10,2);not null"`
	DiscountType  *enums.DiscountType `gorm:"column:discount_type;type:text"`
	DiscountValue decimal.Decimal     `gorm:"column:discount_value;type:numeric(10,2);not null;default:0"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
