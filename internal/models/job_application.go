package models

// JobApplication records a submission from the careers page. Public table:
// applicants do not need an account, so there is no owner reference.
type JobApplication struct {
	BaseModel

	Name        string `gorm:"not null" json:"name"`
	Email       string `gorm:"not null;index" json:"email"`
	Position    string `gorm:"not null" json:"position"`
	ResumeURL   string `gorm:"type:text" json:"resume_url"`
	CoverLetter string `gorm:"type:text" json:"cover_letter"`

	Status     string `gorm:"type:varchar(32);default:'pending';index" json:"status"`
	AdminNotes string `gorm:"type:text" json:"admin_notes"`
}

// TableName pins the table name used by change-feed configuration.
func (JobApplication) TableName() string { return "job_applications" }
