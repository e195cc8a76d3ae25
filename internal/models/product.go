package models

import (
	"gorm.io/datatypes"
)

// Product represents a catalog item managed by back-office staff.
type Product struct {
	BaseModel

	Name        string         `gorm:"not null;index" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"index" json:"category"`
	Specs       datatypes.JSON `json:"specs"`
	ImageURL    string         `gorm:"type:text" json:"image_url"`

	Status string `gorm:"type:varchar(32);default:'pending';index" json:"status"`
}

// TableName pins the table name used by change-feed configuration.
func (Product) TableName() string { return "products" }
