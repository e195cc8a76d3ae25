package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tradegatehq/tradegate/internal/models"
	apperrors "github.com/tradegatehq/tradegate/pkg/errors"
)

// UserDTO is the safe projection of an account returned by the API.
type UserDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Company     string     `json:"company,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	AccountType string     `json:"account_type"`
	IsAdmin     bool       `json:"is_admin"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RegisterInput defines the attributes accepted at signup.
type RegisterInput struct {
	Email       string
	Password    string
	Name        string
	Company     string
	Phone       string
	AccountType string
}

// UserService manages portal accounts.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Register creates a new account with a hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*UserDTO, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewBadRequest("password must be at least 8 characters")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := models.User{
		Email:       email,
		Password:    string(hashed),
		Name:        name,
		Company:     strings.TrimSpace(input.Company),
		Phone:       strings.TrimSpace(input.Phone),
		AccountType: normaliseAccountType(input.AccountType),
		IsActive:    true,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	dto := mapUser(user)
	return &dto, nil
}

// Authenticate verifies credentials and records the login time.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*UserDTO, error) {
	ctx = ensureContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if !user.IsActive {
		return nil, apperrors.ErrForbidden
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("user service: record login: %w", err)
	}
	user.LastLoginAt = &now

	dto := mapUser(user)
	return &dto, nil
}

// GetByID loads a single account.
func (s *UserService) GetByID(ctx context.Context, userID string) (*UserDTO, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	dto := mapUser(user)
	return &dto, nil
}

// UpdateProfileInput carries the mutable profile fields.
type UpdateProfileInput struct {
	Name    *string
	Company *string
	Phone   *string
}

// UpdateProfile applies partial profile changes for the account.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*UserDTO, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("name cannot be empty")
		}
		updates["name"] = name
		user.Name = name
	}
	if input.Company != nil {
		updates["company"] = strings.TrimSpace(*input.Company)
		user.Company = updates["company"].(string)
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
		user.Phone = updates["phone"].(string)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("user service: update profile: %w", err)
		}
	}

	dto := mapUser(user)
	return &dto, nil
}

// ListAdminIDs returns the identifiers of every active admin account. The
// realtime layer fans durable notifications out across this set.
func (s *UserService) ListAdminIDs(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)

	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("is_admin = ? AND is_active = ?", true, true).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("user service: list admins: %w", err)
	}
	return ids, nil
}

func mapUser(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Company:     user.Company,
		Phone:       user.Phone,
		AccountType: defaultIfEmpty(user.AccountType, models.AccountClient),
		IsAdmin:     user.IsAdmin,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

func normaliseAccountType(value string) string {
	switch strings.TrimSpace(value) {
	case models.AccountManufacturer:
		return models.AccountManufacturer
	default:
		return models.AccountClient
	}
}
