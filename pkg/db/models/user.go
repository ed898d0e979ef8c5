package models

import "time"

// User is an end user of the storefront, keyed by the external chat id.
type User struct {
	TelegramID   int64     `gorm:"column:telegram_id;primaryKey"`
	LanguageCode string    `gorm:"column:language_code;size:5;not null;default:'en'"`
	IsBlocked    bool      `gorm:"column:is_blocked;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
