package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradegatehq/tradegate/internal/database/testutil"
	apperrors "github.com/tradegatehq/tradegate/pkg/errors"
)

func newNotificationService(t *testing.T) *NotificationService {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	return svc
}

func TestNotificationServiceCreateAndList(t *testing.T) {
	svc := newNotificationService(t)
	ctx := context.Background()

	older, err := svc.Create(ctx, CreateNotificationInput{
		UserID:  "user-1",
		Title:   "Quote Request Update",
		Message: "Your quote request for Valve has been approved",
		Type:    "quote",
	})
	require.NoError(t, err)
	require.Equal(t, "quote", older.Type)
	require.False(t, older.IsRead)

	time.Sleep(5 * time.Millisecond)

	newer, err := svc.Create(ctx, CreateNotificationInput{
		UserID: "user-1",
		Title:  "Catalogue Request Update",
		Type:   "catalogue",
	})
	require.NoError(t, err)

	// Unknown categories collapse to general.
	_, err = svc.Create(ctx, CreateNotificationInput{
		UserID: "user-2",
		Title:  "Welcome",
		Type:   "surprise",
	})
	require.NoError(t, err)

	items, err := svc.ListForUser(ctx, ListNotificationsInput{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, newer.ID, items[0].ID, "newest first")
	require.Equal(t, older.ID, items[1].ID)

	others, err := svc.ListForUser(ctx, ListNotificationsInput{UserID: "user-2"})
	require.NoError(t, err)
	require.Len(t, others, 1)
	require.Equal(t, "general", others[0].Type)
}

func TestNotificationServiceReadLifecycle(t *testing.T) {
	svc := newNotificationService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateNotificationInput{
		UserID: "user-1",
		Title:  "Quote Request Update",
	})
	require.NoError(t, err)

	read, err := svc.MarkRead(ctx, "user-1", created.ID)
	require.NoError(t, err)
	require.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	unread, err := svc.MarkUnread(ctx, "user-1", created.ID)
	require.NoError(t, err)
	require.False(t, unread.IsRead)
	require.Nil(t, unread.ReadAt)

	// Ownership is enforced: another user cannot toggle the flag.
	_, err = svc.MarkRead(ctx, "user-2", created.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	count, err := svc.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	require.NoError(t, svc.MarkAllRead(ctx, "user-1"))
	count, err = svc.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestNotificationServiceDelete(t *testing.T) {
	svc := newNotificationService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateNotificationInput{
		UserID: "user-1",
		Title:  "Quote Request Update",
	})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, "user-2", created.ID), apperrors.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "user-1", created.ID))
	require.ErrorIs(t, svc.Delete(ctx, "user-1", created.ID), apperrors.ErrNotFound)
}
