package models

// CatalogRequest records a request for the full product catalogue.
// UserID is nullable: the request form is also reachable without an account.
type CatalogRequest struct {
	BaseModel

	UserID  *string `gorm:"type:uuid;index" json:"user_id"`
	Company string  `gorm:"not null" json:"company"`
	Email   string  `gorm:"not null" json:"email"`
	Message string  `gorm:"type:text" json:"message"`

	Status     string `gorm:"type:varchar(32);default:'pending';index" json:"status"`
	AdminNotes string `gorm:"type:text" json:"admin_notes"`
}

// TableName pins the table name used by change-feed configuration.
func (CatalogRequest) TableName() string { return "catalog_requests" }
