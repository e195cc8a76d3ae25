package watch

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tradegatehq/tradegate/internal/bridge"
	"github.com/tradegatehq/tradegate/internal/feed"
	"github.com/tradegatehq/tradegate/internal/realtime"
	"github.com/tradegatehq/tradegate/pkg/logger"
)

// Broadcaster pushes refresh messages to realtime subscribers.
type Broadcaster interface {
	BroadcastStream(stream string, message realtime.Message)
	BroadcastToUser(stream, userID string, message realtime.Message)
}

// Watcher holds the server's standing change-feed subscriptions: one per
// watched table, alive for the process lifetime. On every event it pushes
// refreshed state to the realtime streams and routes the event through the
// notification bridge.
type Watcher struct {
	db       *gorm.DB
	registry *feed.Registry
	bridge   *bridge.Bridge
	hub      Broadcaster
	tables   []bridge.TableConfig
	log      *zap.Logger

	handles []*feed.Handle
}

// New constructs a Watcher over the default table configuration.
func New(db *gorm.DB, registry *feed.Registry, b *bridge.Bridge, hub Broadcaster) (*Watcher, error) {
	if db == nil {
		return nil, errors.New("watch: db is required")
	}
	if registry == nil {
		return nil, errors.New("watch: registry is required")
	}
	return &Watcher{
		db:       db,
		registry: registry,
		bridge:   b,
		hub:      hub,
		tables:   bridge.Tables(),
		log:      logger.WithModule("watch"),
	}, nil
}

// Start opens one unscoped subscription per watched table. The subscriptions
// stay open until Stop.
func (w *Watcher) Start(ctx context.Context) {
	for _, cfg := range w.tables {
		cfg := cfg
		h := w.registry.Open(ctx, feed.OpenInput{
			Table: cfg.Table,
			Fetch: feed.NewTableFetcher(w.db, cfg.Table, feed.Filter{}),
			OnInsert: func(evt feed.Event, rows []feed.Row) {
				w.onInsert(ctx, cfg, evt, rows)
			},
			OnUpdate: func(evt feed.Event, rows []feed.Row) {
				w.onUpdate(ctx, cfg, evt, rows)
			},
			OnDelete: func(evt feed.Event, rows []feed.Row) {
				w.broadcast(cfg, evt, rows)
			},
		})
		w.handles = append(w.handles, h)
		w.log.Info("watching table", zap.String("table", cfg.Table), zap.String("stream", cfg.Stream))
	}
}

// Stop closes every standing subscription.
func (w *Watcher) Stop() {
	for _, h := range w.handles {
		h.Close()
	}
	w.handles = nil
}

func (w *Watcher) onInsert(ctx context.Context, cfg bridge.TableConfig, evt feed.Event, rows []feed.Row) {
	w.broadcast(cfg, evt, rows)
	if w.bridge != nil {
		w.bridge.HandleInsert(ctx, cfg, evt)
	}
}

func (w *Watcher) onUpdate(ctx context.Context, cfg bridge.TableConfig, evt feed.Event, rows []feed.Row) {
	w.broadcast(cfg, evt, rows)
	if w.bridge != nil {
		w.bridge.HandleUpdate(ctx, cfg, evt)
	}
}

// broadcast pushes the authoritative refreshed list to the back-office stream
// and a refresh hint to the affected owner's stream. Owners refetch their own
// scoped view; the full list never crosses the scope boundary.
func (w *Watcher) broadcast(cfg bridge.TableConfig, evt feed.Event, rows []feed.Row) {
	if w.hub == nil {
		return
	}

	w.hub.BroadcastStream(realtime.AdminStream(cfg.Stream), realtime.Message{
		Event: "refresh",
		Data:  rows,
		Meta:  map[string]any{"kind": string(evt.Kind)},
	})

	if cfg.Owned() {
		row := evt.New
		if row == nil {
			row = evt.Old
		}
		if owner := row.String(cfg.ScopeColumn); owner != "" {
			w.hub.BroadcastToUser(cfg.Stream, owner, realtime.Message{
				Event: "refresh",
				Meta:  map[string]any{"kind": string(evt.Kind)},
			})
		}
	} else {
		// Public tables: every subscriber sees the same list.
		w.hub.BroadcastStream(cfg.Stream, realtime.Message{
			Event: "refresh",
			Meta:  map[string]any{"kind": string(evt.Kind)},
		})
	}
}
