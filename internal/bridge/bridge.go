package bridge

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tradegatehq/tradegate/internal/feed"
	"github.com/tradegatehq/tradegate/internal/realtime"
	"github.com/tradegatehq/tradegate/internal/services"
	"github.com/tradegatehq/tradegate/pkg/logger"
	"github.com/tradegatehq/tradegate/pkg/metrics"
)

// Notifier pushes ephemeral notices to a user's live connections. Notices are
// shown once and never stored.
type Notifier interface {
	PushNotice(userID string, notice realtime.Notice)
}

// Store persists durable notifications.
type Store interface {
	Create(ctx context.Context, input services.CreateNotificationInput) (*services.NotificationDTO, error)
}

// AdminDirectory resolves the admin accounts that receive submission fan-outs.
type AdminDirectory interface {
	ListAdminIDs(ctx context.Context) ([]string, error)
}

// Change is the result of diffing the tracked fields of an update event.
type Change struct {
	StatusChanged bool
	OldStatus     string
	NewStatus     string

	// ResponseChanged is set when the response column gained a non-empty
	// value that differs from the previous one.
	ResponseChanged bool
	Response        string
}

// Any reports whether the update touched a tracked field at all.
func (c Change) Any() bool {
	return c.StatusChanged || c.ResponseChanged
}

// Diff compares exactly the tracked fields of the two snapshots: status and
// the table's response column. Any two distinct status strings count as a
// transition; the workflow vocabulary is not validated here.
func Diff(cfg TableConfig, old, new feed.Row) Change {
	var change Change

	oldStatus := old.String("status")
	newStatus := new.String("status")
	if oldStatus != newStatus {
		change.StatusChanged = true
		change.OldStatus = oldStatus
		change.NewStatus = newStatus
	}

	if cfg.ResponseColumn != "" {
		oldResponse := old.String(cfg.ResponseColumn)
		newResponse := new.String(cfg.ResponseColumn)
		if newResponse != "" && newResponse != oldResponse {
			change.ResponseChanged = true
			change.Response = newResponse
		}
	}

	return change
}

// Bridge turns row changes into user-facing notices and durable notifications.
type Bridge struct {
	store    Store
	admins   AdminDirectory
	notifier Notifier
	log      *zap.Logger
}

// New constructs a Bridge. The notifier may be nil, in which case only
// durable notifications are written.
func New(store Store, admins AdminDirectory, notifier Notifier) *Bridge {
	return &Bridge{
		store:    store,
		admins:   admins,
		notifier: notifier,
		log:      logger.WithModule("bridge"),
	}
}

// HandleUpdate reacts to an update event on a watched table. When a tracked
// field changed and the row has an owner, the owner receives exactly one
// ephemeral notice plus one durable notification. Untracked column changes
// are ignored entirely.
func (b *Bridge) HandleUpdate(ctx context.Context, cfg TableConfig, evt feed.Event) {
	change := Diff(cfg, evt.Old, evt.New)
	if !change.Any() {
		return
	}
	if !cfg.Owned() {
		return
	}

	owner := evt.New.String(cfg.ScopeColumn)
	if owner == "" {
		return
	}

	label := recordLabel(cfg, evt.New)
	title := fmt.Sprintf("%s Update", titleCase(cfg.Noun))

	// One notice per event: a status transition outranks a response edit
	// when both land in the same write.
	var notice realtime.Notice
	var message string
	if change.StatusChanged {
		message = fmt.Sprintf("Your %s for %s is now %s", cfg.Noun, label, change.NewStatus)
		notice = realtime.Notice{
			Level:    "success",
			Title:    title,
			Message:  message,
			RecordID: evt.New.ID(),
		}
	} else {
		message = fmt.Sprintf("Your %s for %s received a response: %s", cfg.Noun, label, change.Response)
		notice = realtime.Notice{
			Level:    "info",
			Title:    title,
			Message:  message,
			RecordID: evt.New.ID(),
		}
	}

	if b.notifier != nil {
		b.notifier.PushNotice(owner, notice)
		metrics.NoticesRaised.WithLabelValues(notice.Level).Inc()
	}

	b.Persist(ctx, services.CreateNotificationInput{
		UserID:         owner,
		Title:          title,
		Message:        message,
		Type:           cfg.Category,
		RelatedQuoteID: relatedQuoteID(cfg, evt.New),
	})
}

// HandleInsert reacts to a new submission by writing one durable notification
// per admin account. Partial failure is acceptable: errors are aggregated for
// the log and never retried.
func (b *Bridge) HandleInsert(ctx context.Context, cfg TableConfig, evt feed.Event) {
	if b.admins == nil {
		return
	}

	adminIDs, err := b.admins.ListAdminIDs(ctx)
	if err != nil {
		b.log.Error("listing admins for fan-out failed",
			zap.String("table", cfg.Table), zap.Error(err))
		return
	}

	label := recordLabel(cfg, evt.New)
	title := fmt.Sprintf("New %s", titleCase(cfg.Noun))
	message := fmt.Sprintf("A new %s for %s is awaiting review", cfg.Noun, label)

	var errs error
	for _, adminID := range adminIDs {
		if ok := b.Persist(ctx, services.CreateNotificationInput{
			UserID:         adminID,
			Title:          title,
			Message:        message,
			Type:           cfg.Category,
			RelatedQuoteID: relatedQuoteID(cfg, evt.New),
		}); !ok {
			errs = multierr.Append(errs, fmt.Errorf("notify admin %s", adminID))
		}
	}
	if errs != nil {
		b.log.Warn("admin fan-out incomplete",
			zap.String("table", cfg.Table),
			zap.Int("admins", len(adminIDs)),
			zap.Error(errs),
		)
	}
}

// Persist writes one durable notification. Failures are logged and reported
// as false; notification loss must never break the triggering write path.
func (b *Bridge) Persist(ctx context.Context, input services.CreateNotificationInput) bool {
	if b.store == nil {
		return false
	}

	if _, err := b.store.Create(ctx, input); err != nil {
		metrics.NotificationWrites.WithLabelValues("error").Inc()
		b.log.Error("persisting notification failed",
			zap.String("user_id", input.UserID),
			zap.String("type", input.Type),
			zap.Error(err),
		)
		return false
	}

	metrics.NotificationWrites.WithLabelValues("ok").Inc()
	return true
}

// recordLabel extracts the human identifier for the row, falling back to the
// row id when the label column is empty.
func recordLabel(cfg TableConfig, row feed.Row) string {
	if label := strings.TrimSpace(row.String(cfg.LabelColumn)); label != "" {
		return label
	}
	return row.ID()
}

func relatedQuoteID(cfg TableConfig, row feed.Row) string {
	if !cfg.RelatedQuote {
		return ""
	}
	return row.ID()
}

func titleCase(noun string) string {
	words := strings.Fields(noun)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
