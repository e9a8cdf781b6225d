package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// Order is the immutable snapshot produced by checkout. Monetary totals
// are recomputed from the stored line snapshots on read; only
// ReturnedAmount and Status mutate afterwards (sale returns).
type Order struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID           *uuid.UUID          `gorm:"column:customer_id;type:uuid"`
	UserID               uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	InvoiceDiscountType  *enums.DiscountType `gorm:"column:invoice_discount_type;type:text"`
	InvoiceDiscountValue decimal.Decimal     `gorm:"column:invoice_discount_value;type:numeric(10,2);not null;default:0"`
	Status               enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'completed'"`
	ReturnedAmount       decimal.Decimal     `gorm:"column:returned_amount;type:numeric(10,2);not null;default:0"`
	Items                []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments             []Payment           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is the frozen copy of a cart line. UnitPrice is the
// post-item-discount price per unit; the discount spec is kept for audit.
type OrderItem struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	ProductID        uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	Quantity         int                 `gorm:"column:quantity;not null"`
	UnitPrice        decimal.Decimal     `gorm:"column:unit_price;type:numeric(10,2);not null"`
	DiscountType     *enums.DiscountType `gorm:"column:discount_type;type:text"`
	DiscountValue    decimal.Decimal     `gorm:"column:discount_value;type:numeric(10,2);not null;default:0"`
	QuantityReturned int                 `gorm:"column:quantity_returned;not null;default:0"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
