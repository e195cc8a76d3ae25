package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tradegatehq/tradegate/internal/feed"
	"github.com/tradegatehq/tradegate/internal/models"
	apperrors "github.com/tradegatehq/tradegate/pkg/errors"
)

// CreateCatalogRequestInput defines attributes accepted from the catalogue
// request form. UserID is empty for anonymous submissions.
type CreateCatalogRequestInput struct {
	UserID  string
	Company string
	Email   string
	Message string
}

// ReviewInput carries a back-office status change with optional notes. Nil
// fields are left untouched.
type ReviewInput struct {
	Status     *string
	AdminNotes *string
}

// CatalogService manages catalogue requests.
type CatalogService struct {
	db  *gorm.DB
	bus *feed.Bus
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(db *gorm.DB, bus *feed.Bus) (*CatalogService, error) {
	if db == nil {
		return nil, errors.New("catalog service: db is required")
	}
	return &CatalogService{db: db, bus: bus}, nil
}

// Create persists a new catalogue request.
func (s *CatalogService) Create(ctx context.Context, input CreateCatalogRequestInput) (*models.CatalogRequest, error) {
	ctx = ensureContext(ctx)

	company := strings.TrimSpace(input.Company)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if company == "" || email == "" {
		return nil, apperrors.NewBadRequest("company and email are required")
	}

	request := models.CatalogRequest{
		Company: company,
		Email:   email,
		Message: strings.TrimSpace(input.Message),
		Status:  models.StatusPending,
	}
	if userID := strings.TrimSpace(input.UserID); userID != "" {
		request.UserID = &userID
	}

	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, fmt.Errorf("catalog service: create request: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindInsert,
		Table: request.TableName(),
		New:   feed.AsRow(request),
	})
	return &request, nil
}

// ListForUser returns catalogue requests owned by the supplied user.
func (s *CatalogService) ListForUser(ctx context.Context, userID string) ([]models.CatalogRequest, error) {
	ctx = ensureContext(ctx)

	var requests []models.CatalogRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("catalog service: list requests: %w", err)
	}
	return requests, nil
}

// ListAll returns every catalogue request for back-office review.
func (s *CatalogService) ListAll(ctx context.Context) ([]models.CatalogRequest, error) {
	ctx = ensureContext(ctx)

	var requests []models.CatalogRequest
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("catalog service: list requests: %w", err)
	}
	return requests, nil
}

// GetByID loads a single catalogue request.
func (s *CatalogService) GetByID(ctx context.Context, id string) (*models.CatalogRequest, error) {
	ctx = ensureContext(ctx)

	var request models.CatalogRequest
	if err := s.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("catalog service: load request: %w", err)
	}
	return &request, nil
}

// Review applies the admin's status and notes to a catalogue request.
func (s *CatalogService) Review(ctx context.Context, id string, input ReviewInput) (*models.CatalogRequest, error) {
	ctx = ensureContext(ctx)

	request, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := feed.AsRow(*request)

	updates := map[string]any{}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if status == "" {
			return nil, apperrors.NewBadRequest("status cannot be empty")
		}
		updates["status"] = status
		request.Status = status
	}
	if input.AdminNotes != nil {
		updates["admin_notes"] = *input.AdminNotes
		request.AdminNotes = *input.AdminNotes
	}
	if len(updates) == 0 {
		return request, nil
	}

	if err := s.db.WithContext(ctx).Model(request).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("catalog service: update request: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindUpdate,
		Table: request.TableName(),
		Old:   previous,
		New:   feed.AsRow(*request),
	})
	return request, nil
}

// Delete removes a catalogue request.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	request, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(request).Error; err != nil {
		return fmt.Errorf("catalog service: delete request: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindDelete,
		Table: request.TableName(),
		Old:   feed.AsRow(*request),
	})
	return nil
}

func (s *CatalogService) publish(evt feed.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(evt)
}
