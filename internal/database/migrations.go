package database

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tradegatehq/tradegate/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.QuoteRequest{},
		&models.CatalogRequest{},
		&models.JobApplication{},
		&models.ContactSubmission{},
		&models.Partnership{},
		&models.Notification{},
		&models.CacheEntry{},
	)
}

// SeedData inserts baseline catalog categories used by an empty installation.
// Seeding is idempotent: existing rows are left untouched.
func SeedData(db *gorm.DB) error {
	samples := []models.Product{
		{
			BaseModel:   models.BaseModel{ID: "sample-catalogue"},
			Name:        "Sample Catalogue Entry",
			Description: "Placeholder product created on first start. Replace via the back office.",
			Category:    "general",
			Status:      models.StatusPending,
		},
	}

	for _, product := range samples {
		err := db.Where(models.Product{BaseModel: models.BaseModel{ID: product.ID}}).
			Attrs(product).
			FirstOrCreate(&models.Product{}).Error
		if err != nil {
			return err
		}
	}

	return nil
}

// EnsureAdmin creates or promotes the bootstrap back-office account when
// configured. An empty email disables the behaviour entirely.
func EnsureAdmin(db *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		if existing.IsAdmin {
			return nil
		}
		return db.Model(&existing).Update("is_admin", true).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		if strings.TrimSpace(password) == "" {
			return errors.New("admin password is required to create the bootstrap account")
		}
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if hashErr != nil {
			return hashErr
		}
		now := time.Now().UTC()
		admin := models.User{
			Email:       email,
			Password:    string(hash),
			Name:        "Administrator",
			AccountType: models.AccountClient,
			IsAdmin:     true,
			IsActive:    true,
			LastLoginAt: nil,
		}
		admin.CreatedAt = now
		return db.Create(&admin).Error
	default:
		return err
	}
}
