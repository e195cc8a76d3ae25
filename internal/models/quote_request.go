package models

// QuoteRequest captures a client's request for pricing on a product.
type QuoteRequest struct {
	BaseModel

	UserID    string  `gorm:"type:uuid;not null;index" json:"user_id"`
	ProductID *string `gorm:"type:uuid;index" json:"product_id"`

	ProductName string `gorm:"not null" json:"product_name"`
	Quantity    int    `gorm:"default:1" json:"quantity"`
	Message     string `gorm:"type:text" json:"message"`

	Status        string `gorm:"type:varchar(32);default:'pending';index" json:"status"`
	AdminResponse string `gorm:"type:text" json:"admin_response"`
}

// TableName pins the table name used by change-feed configuration.
func (QuoteRequest) TableName() string { return "quote_requests" }
