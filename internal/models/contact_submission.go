package models

// ContactSubmission records a message sent through the public contact form.
type ContactSubmission struct {
	BaseModel

	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"not null;index" json:"email"`
	Subject string `json:"subject"`
	Message string `gorm:"type:text;not null" json:"message"`

	Status     string `gorm:"type:varchar(32);default:'pending';index" json:"status"`
	AdminNotes string `gorm:"type:text" json:"admin_notes"`
}

// TableName pins the table name used by change-feed configuration.
func (ContactSubmission) TableName() string { return "contact_submissions" }
