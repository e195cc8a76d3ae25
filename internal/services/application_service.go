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

// CreateApplicationInput defines attributes accepted from the careers form.
type CreateApplicationInput struct {
	Name        string
	Email       string
	Position    string
	ResumeURL   string
	CoverLetter string
}

// ApplicationService manages job applications from the careers page.
type ApplicationService struct {
	db  *gorm.DB
	bus *feed.Bus
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(db *gorm.DB, bus *feed.Bus) (*ApplicationService, error) {
	if db == nil {
		return nil, errors.New("application service: db is required")
	}
	return &ApplicationService{db: db, bus: bus}, nil
}

// Create persists a new job application.
func (s *ApplicationService) Create(ctx context.Context, input CreateApplicationInput) (*models.JobApplication, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	position := strings.TrimSpace(input.Position)
	if name == "" || email == "" || position == "" {
		return nil, apperrors.NewBadRequest("name, email and position are required")
	}

	application := models.JobApplication{
		Name:        name,
		Email:       email,
		Position:    position,
		ResumeURL:   strings.TrimSpace(input.ResumeURL),
		CoverLetter: strings.TrimSpace(input.CoverLetter),
		Status:      models.StatusPending,
	}

	if err := s.db.WithContext(ctx).Create(&application).Error; err != nil {
		return nil, fmt.Errorf("application service: create application: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindInsert,
		Table: application.TableName(),
		New:   feed.AsRow(application),
	})
	return &application, nil
}

// ListAll returns every application for back-office review, newest first.
func (s *ApplicationService) ListAll(ctx context.Context) ([]models.JobApplication, error) {
	ctx = ensureContext(ctx)

	var applications []models.JobApplication
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&applications).Error
	if err != nil {
		return nil, fmt.Errorf("application service: list applications: %w", err)
	}
	return applications, nil
}

// GetByID loads a single application.
func (s *ApplicationService) GetByID(ctx context.Context, id string) (*models.JobApplication, error) {
	ctx = ensureContext(ctx)

	var application models.JobApplication
	if err := s.db.WithContext(ctx).First(&application, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("application service: load application: %w", err)
	}
	return &application, nil
}

// Review applies the admin's status and notes to an application.
func (s *ApplicationService) Review(ctx context.Context, id string, input ReviewInput) (*models.JobApplication, error) {
	ctx = ensureContext(ctx)

	application, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := feed.AsRow(*application)

	updates := map[string]any{}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if status == "" {
			return nil, apperrors.NewBadRequest("status cannot be empty")
		}
		updates["status"] = status
		application.Status = status
	}
	if input.AdminNotes != nil {
		updates["admin_notes"] = *input.AdminNotes
		application.AdminNotes = *input.AdminNotes
	}
	if len(updates) == 0 {
		return application, nil
	}

	if err := s.db.WithContext(ctx).Model(application).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("application service: update application: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindUpdate,
		Table: application.TableName(),
		Old:   previous,
		New:   feed.AsRow(*application),
	})
	return application, nil
}

// Delete removes an application.
func (s *ApplicationService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	application, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(application).Error; err != nil {
		return fmt.Errorf("application service: delete application: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindDelete,
		Table: application.TableName(),
		Old:   feed.AsRow(*application),
	})
	return nil
}

func (s *ApplicationService) publish(evt feed.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(evt)
}
