package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is one pending (product, location, quantity) selection for a user.
// Quantity is always > 0; setting it to zero deletes the row. Price and names
// are intentionally absent: they are read live at render or conversion time.
type CartLine struct {
	UserID     int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	LocationID uuid.UUID `gorm:"column:location_id;type:uuid;primaryKey"`
	Quantity   int       `gorm:"column:quantity;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartLine) TableName() string { return "cart_lines" }
