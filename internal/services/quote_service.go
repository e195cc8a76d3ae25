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

// CreateQuoteInput defines attributes accepted from the quote request form.
type CreateQuoteInput struct {
	UserID      string
	ProductID   string
	ProductName string
	Quantity    int
	Message     string
}

// RespondQuoteInput carries the admin's review of a quote request. Nil fields
// are left untouched.
type RespondQuoteInput struct {
	Status        *string
	AdminResponse *string
}

// QuoteService manages quote requests submitted by clients.
type QuoteService struct {
	db  *gorm.DB
	bus *feed.Bus
}

// NewQuoteService constructs a QuoteService.
func NewQuoteService(db *gorm.DB, bus *feed.Bus) (*QuoteService, error) {
	if db == nil {
		return nil, errors.New("quote service: db is required")
	}
	return &QuoteService{db: db, bus: bus}, nil
}

// Create persists a new quote request owned by the supplied user.
func (s *QuoteService) Create(ctx context.Context, input CreateQuoteInput) (*models.QuoteRequest, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}
	productName := strings.TrimSpace(input.ProductName)
	if productName == "" {
		return nil, apperrors.NewBadRequest("product name is required")
	}
	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	quote := models.QuoteRequest{
		UserID:      userID,
		ProductName: productName,
		Quantity:    quantity,
		Message:     strings.TrimSpace(input.Message),
		Status:      models.StatusPending,
	}
	if productID := strings.TrimSpace(input.ProductID); productID != "" {
		quote.ProductID = &productID
	}

	if err := s.db.WithContext(ctx).Create(&quote).Error; err != nil {
		return nil, fmt.Errorf("quote service: create quote request: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindInsert,
		Table: quote.TableName(),
		New:   feed.AsRow(quote),
	})
	return &quote, nil
}

// ListForUser returns the user's own quote requests, newest first.
func (s *QuoteService) ListForUser(ctx context.Context, userID string) ([]models.QuoteRequest, error) {
	ctx = ensureContext(ctx)

	var quotes []models.QuoteRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&quotes).Error
	if err != nil {
		return nil, fmt.Errorf("quote service: list quote requests: %w", err)
	}
	return quotes, nil
}

// ListAll returns every quote request for back-office review, newest first.
func (s *QuoteService) ListAll(ctx context.Context) ([]models.QuoteRequest, error) {
	ctx = ensureContext(ctx)

	var quotes []models.QuoteRequest
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&quotes).Error
	if err != nil {
		return nil, fmt.Errorf("quote service: list quote requests: %w", err)
	}
	return quotes, nil
}

// GetByID loads a single quote request.
func (s *QuoteService) GetByID(ctx context.Context, id string) (*models.QuoteRequest, error) {
	ctx = ensureContext(ctx)

	var quote models.QuoteRequest
	if err := s.db.WithContext(ctx).First(&quote, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("quote service: load quote request: %w", err)
	}
	return &quote, nil
}

// Respond applies the admin's status and written response. The status value
// is stored as provided; the workflow vocabulary belongs to the back office.
func (s *QuoteService) Respond(ctx context.Context, id string, input RespondQuoteInput) (*models.QuoteRequest, error) {
	ctx = ensureContext(ctx)

	quote, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := feed.AsRow(*quote)

	updates := map[string]any{}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if status == "" {
			return nil, apperrors.NewBadRequest("status cannot be empty")
		}
		updates["status"] = status
		quote.Status = status
	}
	if input.AdminResponse != nil {
		updates["admin_response"] = *input.AdminResponse
		quote.AdminResponse = *input.AdminResponse
	}
	if len(updates) == 0 {
		return quote, nil
	}

	if err := s.db.WithContext(ctx).Model(quote).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("quote service: update quote request: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindUpdate,
		Table: quote.TableName(),
		Old:   previous,
		New:   feed.AsRow(*quote),
	})
	return quote, nil
}

// Delete removes a quote request. Only back-office staff call this.
func (s *QuoteService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	quote, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(quote).Error; err != nil {
		return fmt.Errorf("quote service: delete quote request: %w", err)
	}

	s.publish(feed.Event{
		Kind:  feed.KindDelete,
		Table: quote.TableName(),
		Old:   feed.AsRow(*quote),
	})
	return nil
}

func (s *QuoteService) publish(evt feed.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(evt)
}
