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

// CreateContactInput defines attributes accepted from the contact form.
type CreateContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// ContactService manages contact form submissions.
type ContactService struct {
	db  *gorm.DB
	bus *feed.Bus
}

// NewContactService constructs a ContactService.
func NewContactService(db *gorm.DB, bus *feed.Bus) (*ContactService, error) {
	if db == nil {
		return nil, errors.New("contact service: db is required")
	}
	return &ContactService{db: db, bus: bus}, nil
}

// Create persists a new contact submission.
func (s *ContactService) Create(ctx context.Context, input CreateContactInput) (*models.ContactSubmission, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	message := strings.TrimSpace(input.Message)
	if name == "" || email == "" || message == "" {
		return nil, apperrors.NewBadRequest("name, email and message are required")
	}

	submission := models.ContactSubmission{
		Name:    name,
		Email:   email,
		Subject: strings.TrimSpace(input.Subject),
		Message: message,
		Status:  models.StatusPending,
	}

	if err := s.db.WithContext(ctx).Create(&submission).Error; err != nil {
		return nil, fmt.Errorf("contact service: create submission: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindInsert,
		Table: submission.TableName(),
		New:   feed.AsRow(submission),
	})
	return &submission, nil
}

// ListAll returns every submission for back-office review, newest first.
func (s *ContactService) ListAll(ctx context.Context) ([]models.ContactSubmission, error) {
	ctx = ensureContext(ctx)

	var submissions []models.ContactSubmission
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("contact service: list submissions: %w", err)
	}
	return submissions, nil
}

// GetByID loads a single submission.
func (s *ContactService) GetByID(ctx context.Context, id string) (*models.ContactSubmission, error) {
	ctx = ensureContext(ctx)

	var submission models.ContactSubmission
	if err := s.db.WithContext(ctx).First(&submission, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("contact service: load submission: %w", err)
	}
	return &submission, nil
}

// Review applies the admin's status and notes to a submission.
func (s *ContactService) Review(ctx context.Context, id string, input ReviewInput) (*models.ContactSubmission, error) {
	ctx = ensureContext(ctx)

	submission, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := feed.AsRow(*submission)

	updates := map[string]any{}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if status == "" {
			return nil, apperrors.NewBadRequest("status cannot be empty")
		}
		updates["status"] = status
		submission.Status = status
	}
	if input.AdminNotes != nil {
		updates["admin_notes"] = *input.AdminNotes
		submission.AdminNotes = *input.AdminNotes
	}
	if len(updates) == 0 {
		return submission, nil
	}

	if err := s.db.WithContext(ctx).Model(submission).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("contact service: update submission: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindUpdate,
		Table: submission.TableName(),
		Old:   previous,
		New:   feed.AsRow(*submission),
	})
	return submission, nil
}

// Delete removes a submission.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	submission, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(submission).Error; err != nil {
		return fmt.Errorf("contact service: delete submission: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindDelete,
		Table: submission.TableName(),
		Old:   feed.AsRow(*submission),
	})
	return nil
}

func (s *ContactService) publish(evt feed.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(evt)
}
