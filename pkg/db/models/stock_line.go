package models

import (
	"time"

	"github.com/google/uuid"
)

// StockLine is the authoritative available-quantity counter for one
// (product, location) pair. Absence of a row is equivalent to quantity 0.
// The quantity column carries a CHECK (quantity >= 0) constraint in the
// schema; application code must never rely on the constraint alone.
type StockLine struct {
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	LocationID uuid.UUID `gorm:"column:location_id;type:uuid;primaryKey"`
	Quantity   int       `gorm:"column:quantity;not null;default:0"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (StockLine) TableName() string { return "stock_lines" }
