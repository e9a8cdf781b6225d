package models

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is referenced by purchases.
type Supplier struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	FullName  string    `gorm:"column:full_name;not null"`
	Phone     *string   `gorm:"column:phone"`
	Email     *string   `gorm:"column:email"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
