package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// Purchase is the immutable record of received supplier stock.
// TotalAmount is the invoice-discounted grand total snapshotted at
// receive time.
type Purchase struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID               uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	SupplierID           *uuid.UUID          `gorm:"column:supplier_id;type:uuid"`
	InvoiceNumber        string              `gorm:"column:invoice_number;not null;uniqueIndex"`
	TotalAmount          decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	PaidAmount           decimal.Decimal     `gorm:"column:paid_amount;type:numeric(10,2);not null;default:0"`
	PaymentStatus        enums.PaymentStatus `gorm:"column:payment_status;type:text;not null"`
	PurchaseDate         time.Time           `gorm:"column:purchase_date;not null"`
	Notes                *string             `gorm:"column:notes"`
	InvoiceDiscountType  *enums.DiscountType `gorm:"column:invoice_discount_type;type:text"`
	InvoiceDiscountValue decimal.Decimal     `gorm:"column:invoice_discount_value;type:numeric(10,2);not null;default:0"`
	Items                []PurchaseItem      `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// PurchaseItem is the frozen copy of a staged purchase line. CostPrice is
// the post-item-discount unit cost; the discount spec is kept for audit.
type PurchaseItem struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	PurchaseID    uuid.UUID           `gorm:"column:purchase_id;type:uuid;not null"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	Quantity      int                 `gorm:"column:quantity;not null"`
	CostPrice     decimal.Decimal     `gorm:"column:cost_price;type:numeric(10,2);not null"`
	DiscountType  *enums.DiscountType `gorm:"column:item_discount_type;type:text"`
	DiscountValue decimal.Decimal     `gorm:"column:item_discount_value;type:numeric(10,2);not null;default:0"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
