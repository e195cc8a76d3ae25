package models

// Partnership records a partnership proposal from another business.
type Partnership struct {
	BaseModel

	Company  string `gorm:"not null" json:"company"`
	Email    string `gorm:"not null;index" json:"email"`
	Website  string `json:"website"`
	Proposal string `gorm:"type:text;not null" json:"proposal"`

	Status     string `gorm:"type:varchar(32);default:'pending';index" json:"status"`
	AdminNotes string `gorm:"type:text" json:"admin_notes"`
}

// TableName pins the table name used by change-feed configuration.
func (Partnership) TableName() string { return "partnerships" }
