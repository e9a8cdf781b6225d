package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Till is a cash-drawer session. At most one row per user may have a null
// ClosedAt. Cash/card figures at close are caller-counted; shortage and
// surplus are stored verbatim for reconciliation audits.
type Till struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	OpenedAt       time.Time       `gorm:"column:opened_at;not null"`
	ClosedAt       *time.Time      `gorm:"column:closed_at"`
	CashHandedOver decimal.Decimal `gorm:"column:cash_handed_over;type:numeric(10,2);not null;default:0"`
	CardHandedOver decimal.Decimal `gorm:"column:card_handed_over;type:numeric(10,2);not null;default:0"`
	Shortage       decimal.Decimal `gorm:"column:shortage;type:numeric(10,2);not null;default:0"`
	Surplus        decimal.Decimal `gorm:"column:surplus;type:numeric(10,2);not null;default:0"`
	Payments       []Payment       `gorm:"foreignKey:TillID"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
