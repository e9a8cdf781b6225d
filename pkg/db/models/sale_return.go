package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// SaleReturn records one refund event against an order. Never mutated
// after creation.
type SaleReturn struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID           uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	Type              enums.SaleReturnType `gorm:"column:type;type:text;not null"`
	ReturnDate        time.Time            `gorm:"column:return_date;not null"`
	TotalRefundAmount decimal.Decimal      `gorm:"column:total_refund_amount;type:numeric(10,2);not null"`
	UserID            uuid.UUID            `gorm:"column:user_id;type:uuid;not null"`
	Notes             *string              `gorm:"column:notes"`
	Items             []SaleReturnItem     `gorm:"foreignKey:SaleReturnID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
}

// SaleReturnItem records the restocked quantity and the post-item-discount
// unit price in force when the line was returned.
type SaleReturnItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SaleReturnID  uuid.UUID       `gorm:"column:sale_return_id;type:uuid;not null"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	PriceAtReturn decimal.Decimal `gorm:"column:price_at_return;type:numeric(10,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
