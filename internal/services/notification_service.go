package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tradegatehq/tradegate/internal/models"
	"github.com/tradegatehq/tradegate/internal/realtime"
	apperrors "github.com/tradegatehq/tradegate/pkg/errors"
)

// NotificationDTO represents the API-friendly notification payload.
type NotificationDTO struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Type           string     `json:"type"`
	RelatedQuoteID *string    `json:"related_quote_id,omitempty"`
	IsRead         bool       `json:"is_read"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// CreateNotificationInput defines attributes required to persist a notification.
type CreateNotificationInput struct {
	UserID         string
	Title          string
	Message        string
	Type           string
	RelatedQuoteID string
}

// ListNotificationsInput defines filters for querying user notifications.
type ListNotificationsInput struct {
	UserID string
	Limit  int
	Offset int
	Unread bool
}

// NotificationService manages durable per-user notifications.
type NotificationService struct {
	db  *gorm.DB
	hub *realtime.Hub
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, hub *realtime.Hub) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db, hub: hub}, nil
}

// ListForUser returns notifications for the supplied user ordered by recency.
func (s *NotificationService) ListForUser(ctx context.Context, input ListNotificationsInput) ([]NotificationDTO, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}

	query := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(clampLimit(input.Limit, 25, 100)).
		Offset(maxInt(0, input.Offset))
	if input.Unread {
		query = query.Where("is_read = ?", false)
	}

	var rows []models.Notification
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list notifications: %w", err)
	}

	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items, nil
}

// CountUnread returns the number of unread notifications for the user.
func (s *NotificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("notification service: count unread: %w", err)
	}
	return count, nil
}

// Create persists a new notification and broadcasts it to the owner's
// realtime stream.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.New("notification service: title is required")
	}

	notification := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: strings.TrimSpace(input.Message),
		Type:    normaliseType(input.Type),
	}
	if related := strings.TrimSpace(input.RelatedQuoteID); related != "" {
		notification.RelatedQuoteID = &related
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	dto := mapNotification(notification)
	s.broadcast(userID, "notification.created", &dto)
	return &dto, nil
}

// MarkRead sets the notification read flag for a user.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*NotificationDTO, error) {
	return s.setReadState(ctx, userID, notificationID, true)
}

// MarkUnread unsets the notification read flag.
func (s *NotificationService) MarkUnread(ctx context.Context, userID, notificationID string) (*NotificationDTO, error) {
	return s.setReadState(ctx, userID, notificationID, false)
}

func (s *NotificationService) setReadState(ctx context.Context, userID, notificationID string, read bool) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	var notification models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	updates := map[string]any{"is_read": read, "read_at": nil}
	notification.IsRead = read
	notification.ReadAt = nil
	if read {
		now := time.Now().UTC()
		updates["read_at"] = now
		notification.ReadAt = &now
	}

	if err := s.db.WithContext(ctx).Model(&notification).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("notification service: update read state: %w", err)
	}

	dto := mapNotification(notification)
	s.broadcast(userID, "notification.updated", &dto)
	return &dto, nil
}

// MarkAllRead marks all notifications for the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": now}).Error; err != nil {
		return fmt.Errorf("notification service: mark all read: %w", err)
	}

	s.broadcast(userID, "notification.read_all", nil)
	return nil
}

// Delete removes a notification owned by the supplied user.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("notification service: delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	s.broadcast(userID, "notification.deleted", &NotificationDTO{ID: notificationID, UserID: userID})
	return nil
}

func (s *NotificationService) broadcast(userID, event string, payload *NotificationDTO) {
	if s.hub == nil {
		return
	}
	message := realtime.Message{
		Stream: realtime.StreamNotifications,
		Event:  event,
	}
	if payload != nil {
		message.Data = payload
	}
	s.hub.BroadcastToUser(realtime.StreamNotifications, userID, message)
}

func mapNotification(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:             row.ID,
		UserID:         row.UserID,
		Title:          row.Title,
		Message:        row.Message,
		Type:           defaultIfEmpty(row.Type, models.NotificationGeneral),
		RelatedQuoteID: row.RelatedQuoteID,
		IsRead:         row.IsRead,
		CreatedAt:      row.CreatedAt,
		ReadAt:         row.ReadAt,
	}
}

// normaliseType coerces unknown categories to general; the category set is fixed.
func normaliseType(value string) string {
	switch strings.TrimSpace(value) {
	case models.NotificationQuote:
		return models.NotificationQuote
	case models.NotificationCatalogue:
		return models.NotificationCatalogue
	case models.NotificationAdmin:
		return models.NotificationAdmin
	default:
		return models.NotificationGeneral
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
