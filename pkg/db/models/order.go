package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storebot/storefront-backend/pkg/enums"
)

// Order is created exactly once by checkout and afterwards mutated only
// through the status state machine (status, admin notes, updated-at).
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID        int64               `gorm:"column:user_id;not null;index"`
	Status        enums.OrderStatus   `gorm:"column:status;size:50;not null;default:'pending_admin_approval'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;size:50;not null"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(10,2);not null"`
	AdminNotes    *string             `gorm:"column:admin_notes"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
