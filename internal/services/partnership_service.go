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

// CreatePartnershipInput defines attributes accepted from the partnership form.
type CreatePartnershipInput struct {
	Company  string
	Email    string
	Website  string
	Proposal string
}

// PartnershipService manages partnership proposals.
type PartnershipService struct {
	db  *gorm.DB
	bus *feed.Bus
}

// NewPartnershipService constructs a PartnershipService.
func NewPartnershipService(db *gorm.DB, bus *feed.Bus) (*PartnershipService, error) {
	if db == nil {
		return nil, errors.New("partnership service: db is required")
	}
	return &PartnershipService{db: db, bus: bus}, nil
}

// Create persists a new partnership proposal.
func (s *PartnershipService) Create(ctx context.Context, input CreatePartnershipInput) (*models.Partnership, error) {
	ctx = ensureContext(ctx)

	company := strings.TrimSpace(input.Company)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	proposal := strings.TrimSpace(input.Proposal)
	if company == "" || email == "" || proposal == "" {
		return nil, apperrors.NewBadRequest("company, email and proposal are required")
	}

	partnership := models.Partnership{
		Company:  company,
		Email:    email,
		Website:  strings.TrimSpace(input.Website),
		Proposal: proposal,
		Status:   models.StatusPending,
	}

	if err := s.db.WithContext(ctx).Create(&partnership).Error; err != nil {
		return nil, fmt.Errorf("partnership service: create proposal: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindInsert,
		Table: partnership.TableName(),
		New:   feed.AsRow(partnership),
	})
	return &partnership, nil
}

// ListAll returns every proposal for back-office review, newest first.
func (s *PartnershipService) ListAll(ctx context.Context) ([]models.Partnership, error) {
	ctx = ensureContext(ctx)

	var partnerships []models.Partnership
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&partnerships).Error
	if err != nil {
		return nil, fmt.Errorf("partnership service: list proposals: %w", err)
	}
	return partnerships, nil
}

// GetByID loads a single proposal.
func (s *PartnershipService) GetByID(ctx context.Context, id string) (*models.Partnership, error) {
	ctx = ensureContext(ctx)

	var partnership models.Partnership
	if err := s.db.WithContext(ctx).First(&partnership, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("partnership service: load proposal: %w", err)
	}
	return &partnership, nil
}

// Review applies the admin's status and notes to a proposal.
func (s *PartnershipService) Review(ctx context.Context, id string, input ReviewInput) (*models.Partnership, error) {
	ctx = ensureContext(ctx)

	partnership, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := feed.AsRow(*partnership)

	updates := map[string]any{}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if status == "" {
			return nil, apperrors.NewBadRequest("status cannot be empty")
		}
		updates["status"] = status
		partnership.Status = status
	}
	if input.AdminNotes != nil {
		updates["admin_notes"] = *input.AdminNotes
		partnership.AdminNotes = *input.AdminNotes
	}
	if len(updates) == 0 {
		return partnership, nil
	}

	if err := s.db.WithContext(ctx).Model(partnership).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("partnership service: update proposal: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindUpdate,
		Table: partnership.TableName(),
		Old:   previous,
		New:   feed.AsRow(*partnership),
	})
	return partnership, nil
}

// Delete removes a proposal.
func (s *PartnershipService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	partnership, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(partnership).Error; err != nil {
		return fmt.Errorf("partnership service: delete proposal: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindDelete,
		Table: partnership.TableName(),
		Old:   feed.AsRow(*partnership),
	})
	return nil
}

func (s *PartnershipService) publish(evt feed.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(evt)
}
