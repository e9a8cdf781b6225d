package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// Payment is immutable once created. Its owning parent is the order; the
// till reference only scopes it for cash-drawer reconciliation and may be
// null when paymentless-till checkout is allowed.
type Payment struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	UserID    uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	TillID    *uuid.UUID          `gorm:"column:till_id;type:uuid"`
	Method    enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}
