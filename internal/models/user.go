package models

import (
	"time"
)

// Account types supported by the portal.
const (
	AccountManufacturer = "manufacturer"
	AccountClient       = "client"
)

// User describes a registered manufacturer or client account.
type User struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	Name        string `gorm:"not null" json:"name"`
	Company     string `json:"company"`
	Phone       string `json:"phone"`
	AccountType string `gorm:"type:varchar(32);default:'client'" json:"account_type"`

	IsAdmin  bool `gorm:"default:false;index" json:"is_admin"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	LastLoginAt *time.Time `json:"last_login_at"`
}
