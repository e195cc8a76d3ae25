package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	testutil "github.com/tradegatehq/tradegate/internal/database/testutil"
	"github.com/tradegatehq/tradegate/internal/models"
)

func TestCleanupNotifications(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-90 * 24 * time.Hour)

	oldRead := seedNotification(t, db, "user-1", true, cutoff.Add(-time.Hour))
	recentRead := seedNotification(t, db, "user-1", true, cutoff.Add(time.Hour))
	oldUnread := seedNotification(t, db, "user-1", false, cutoff.Add(-time.Hour))

	removed, err := CleanupNotifications(context.Background(), db, cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	var remaining []models.Notification
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 2)

	ids := []string{remaining[0].ID, remaining[1].ID}
	require.ElementsMatch(t, []string{recentRead.ID, oldUnread.ID}, ids)
	require.NotContains(t, ids, oldRead.ID)
}

func TestCleanupCacheEntries(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)

	stale := models.CacheEntry{Key: "rl:stale", Value: []byte("3"), ExpiresAt: cutoff.Add(-time.Minute)}
	fresh := models.CacheEntry{Key: "rl:fresh", Value: []byte("1"), ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&fresh).Error)

	removed, err := CleanupCacheEntries(context.Background(), db, cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	var entry models.CacheEntry
	require.NoError(t, db.First(&entry, "key = ?", "rl:fresh").Error)
	err = db.First(&entry, "key = ?", "rl:stale").Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	seedNotification(t, db, "user-1", true, now.Add(-100*24*time.Hour))
	keep := seedNotification(t, db, "user-1", false, now.Add(-100*24*time.Hour))
	require.NoError(t, db.Create(&models.CacheEntry{
		Key:       "rl:old",
		Value:     []byte("9"),
		ExpiresAt: now.Add(-48 * time.Hour),
	}).Error)

	c := NewCleaner(db,
		WithNow(func() time.Time { return now }),
		WithNotificationMaxAge(90*24*time.Hour),
		WithCacheGraceAge(24*time.Hour),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)

	require.NoError(t, c.RunOnce(context.Background()))

	var notifications []models.Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	require.Equal(t, keep.ID, notifications[0].ID)

	var cacheCount int64
	require.NoError(t, db.Model(&models.CacheEntry{}).Count(&cacheCount).Error)
	require.Equal(t, int64(0), cacheCount)
}

func TestCleanerDisabledWithoutDB(t *testing.T) {
	c := NewCleaner(nil)
	require.NoError(t, c.Start())
	require.NoError(t, c.RunOnce(context.Background()))
	c.Stop()
}

func seedNotification(t *testing.T, db *gorm.DB, userID string, read bool, createdAt time.Time) *models.Notification {
	t.Helper()

	n := &models.Notification{
		UserID:  userID,
		Title:   "Quote Update",
		Message: "Your quote for Industrial Valve is now approved",
		Type:    models.NotificationQuote,
		IsRead:  read,
	}
	if read {
		at := createdAt
		n.ReadAt = &at
	}
	require.NoError(t, db.Create(n).Error)
	require.NoError(t, db.Model(n).Update("created_at", createdAt).Error)
	return n
}
