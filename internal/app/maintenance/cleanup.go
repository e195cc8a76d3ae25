package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tradegatehq/tradegate/internal/models"
	"github.com/tradegatehq/tradegate/pkg/logger"
)

const (
	defaultSchedule           = "@hourly"
	defaultNotificationMaxAge = 90 * 24 * time.Hour
	defaultCacheGraceAge      = 24 * time.Hour
)

// Cleaner coordinates background maintenance tasks: pruning read notifications
// past their retention window and sweeping expired cache entries.
type Cleaner struct {
	db      *gorm.DB
	cron    *cron.Cron
	now     func() time.Time
	log     *zap.Logger
	enabled bool

	schedule           string
	notificationMaxAge time.Duration
	cacheGraceAge      time.Duration
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithSchedule overrides the cron specification for the cleanup run.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithNotificationMaxAge adjusts how long read notifications are retained.
func WithNotificationMaxAge(age time.Duration) Option {
	return func(cleaner *Cleaner) {
		if age > 0 {
			cleaner.notificationMaxAge = age
		}
	}
}

// WithCacheGraceAge adjusts how long expired cache entries linger before removal.
func WithCacheGraceAge(age time.Duration) Option {
	return func(cleaner *Cleaner) {
		if age > 0 {
			cleaner.cacheGraceAge = age
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil database
// disables every job.
func NewCleaner(db *gorm.DB, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:                 db,
		now:                time.Now,
		schedule:           defaultSchedule,
		notificationMaxAge: defaultNotificationMaxAge,
		cacheGraceAge:      defaultCacheGraceAge,
		log:                logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.db != nil

	return cleaner
}

// Start registers the cleanup job with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("maintenance run failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all cleanup routines sequentially. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	now := c.now()

	if _, err := CleanupNotifications(ctx, c.db, now.Add(-c.notificationMaxAge)); err != nil {
		errs = multierr.Append(errs, err)
	}

	if _, err := CleanupCacheEntries(ctx, c.db, now.Add(-c.cacheGraceAge)); err != nil {
		errs = multierr.Append(errs, err)
	}

	return errs
}

// CleanupNotifications removes read notifications created before the cutoff.
// Unread notifications are kept regardless of age.
func CleanupNotifications(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("cleanup notifications: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup notifications: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// CleanupCacheEntries removes cache entries whose expiry passed before the cutoff.
func CleanupCacheEntries(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("cleanup cache entries: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.CacheEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup cache entries: %w", result.Error)
	}

	return result.RowsAffected, nil
}
