package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is catalog data plus the single contended stock counter.
// Stock is only ever mutated through guarded updates inside engine
// transactions.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Barcode   *string         `gorm:"column:barcode;uniqueIndex"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	CostPrice decimal.Decimal `gorm:"column:cost_price;type:numeric(10,2);not null"`
	Stock     int             `gorm:"column:stock;not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
