package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem captures the frozen snapshot of one ordered line. PriceAtOrder
// and the name snapshots decouple historical orders from catalog edits.
// ReservedQuantity equals Quantity at creation and is zeroed by the one
// compensating restore a reject/cancel performs.
type OrderItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	LocationID       uuid.UUID       `gorm:"column:location_id;type:uuid;not null"`
	Quantity         int             `gorm:"column:quantity;not null"`
	ReservedQuantity int             `gorm:"column:reserved_quantity;not null;default:0"`
	PriceAtOrder     decimal.Decimal `gorm:"column:price_at_order;type:numeric(10,2);not null"`
	ProductName      string          `gorm:"column:product_name;not null"`
	LocationName     string          `gorm:"column:location_name;not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
