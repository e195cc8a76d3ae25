package models

import (
	"time"
)

// Notification categories. The set is fixed; anything else is coerced to general.
const (
	NotificationQuote     = "quote"
	NotificationCatalogue = "catalogue"
	NotificationAdmin     = "admin"
	NotificationGeneral   = "general"
)

// Notification represents a durable in-app notification for a user.
// It belongs to exactly one user and is immutable except for the read flag.
type Notification struct {
	BaseModel

	UserID  string `gorm:"type:uuid;not null;index" json:"user_id"`
	Title   string `gorm:"type:varchar(255);not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`
	Type    string `gorm:"type:varchar(32);default:'general'" json:"type"`

	RelatedQuoteID *string `gorm:"type:uuid" json:"related_quote_id"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}
