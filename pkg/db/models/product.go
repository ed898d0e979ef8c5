package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog listing. Price is mutable over time; orders freeze a
// snapshot of it at creation, so nothing here is read back for history.
type Product struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ManufacturerID uuid.UUID       `gorm:"column:manufacturer_id;type:uuid;not null"`
	CategoryID     *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	SKU            *string         `gorm:"column:sku;size:100;uniqueIndex"`
	Name           string          `gorm:"column:name;not null"`
	Description    *string         `gorm:"column:description"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Manufacturer   *Manufacturer   `gorm:"foreignKey:ManufacturerID"`
	Category       *Category       `gorm:"foreignKey:CategoryID"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
