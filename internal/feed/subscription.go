package feed

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/tradegatehq/tradegate/pkg/logger"
	"github.com/tradegatehq/tradegate/pkg/metrics"
)

// Callback receives the triggering event together with the refreshed
// authoritative result set. The refreshed rows, not the event payload, are
// the source of truth for display state.
type Callback func(evt Event, rows []Row)

// FetchFunc performs the authoritative read backing a subscription. It must
// return the full current result set ordered by creation time descending.
type FetchFunc func(ctx context.Context) ([]Row, error)

// OpenInput describes a subscription to open against the registry.
type OpenInput struct {
	Table string

	// Scope restricts the subscription to rows matching an equality filter,
	// typically the owner reference.
	Scope Filter

	// RequireScope defers the subscription when Scope carries no value,
	// instead of falling back to an unscoped channel that would leak
	// cross-user rows.
	RequireScope bool

	Fetch FetchFunc

	OnInsert Callback
	OnUpdate Callback
	OnDelete Callback

	// OnRefresh, when set, observes the initial fetch result.
	OnRefresh Callback

	Buffer int
}

// Registry owns the live subscription handles for one composition scope
// (one mounted view, or the server's watcher). At most one handle per
// (table, scope) key is live at a time.
type Registry struct {
	mu      sync.Mutex
	bus     *Bus
	handles map[string]*Handle
	closed  bool
	log     *zap.Logger
}

// NewRegistry constructs a Registry bound to the supplied bus.
func NewRegistry(bus *Bus) *Registry {
	return &Registry{
		bus:     bus,
		handles: make(map[string]*Handle),
		log:     logger.WithModule("feed"),
	}
}

// Open establishes a live view of "the current contents of table, restricted
// by scope". It never returns an error: channel-establishment failure is
// logged and degrades the handle to initial-fetch-only mode. Opening a second
// subscription for the same (table, scope) key closes the first.
func (r *Registry) Open(ctx context.Context, in OpenInput) *Handle {
	key := in.Table + "|" + in.Scope.String()

	if in.RequireScope && in.Scope.Value == "" {
		// No owner id yet: defer rather than subscribe unscoped.
		r.log.Debug("deferring subscription until scope is available",
			zap.String("table", in.Table))
		return &Handle{table: in.Table, deferred: true, closed: true}
	}

	handleCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		registry: r,
		key:      key,
		table:    in.Table,
		scope:    in.Scope,
		fetch:    in.Fetch,
		onInsert: in.OnInsert,
		onUpdate: in.OnUpdate,
		onDelete: in.OnDelete,
		ctx:      handleCtx,
		cancel:   cancel,
		log:      r.log.With(zap.String("table", in.Table)),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		cancel()
		h.closed = true
		return h
	}
	previous := r.handles[key]
	r.handles[key] = h
	r.mu.Unlock()

	// Last-writer-wins on the handle: never hold two channels for one key.
	if previous != nil {
		previous.Close()
	}

	ch, err := r.bus.subscribe(in.Table, in.Scope, in.Buffer, func(status Status) {
		if status == StatusChannelError {
			h.log.Warn("change feed channel error")
		}
	})
	if err != nil {
		// Degraded-but-functional: no live updates, but the initial fetch
		// below still runs.
		h.log.Warn("change feed unavailable, live updates disabled", zap.Error(err))
	} else {
		h.channel = ch
		go h.eventLoop()
	}

	// Initial manual fetch, independent of channel success.
	go h.refetch(Event{Table: in.Table}, h.nextSeq(), in.OnRefresh)

	return h
}

// Close releases every handle owned by the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	handles := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	for _, h := range handles {
		h.Close()
	}
}

func (r *Registry) forget(key string, h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handles[key] == h {
		delete(r.handles, key)
	}
}

// Handle is the process-local ownership of one open channel.
type Handle struct {
	registry *Registry
	key      string
	table    string
	scope    Filter
	fetch    FetchFunc
	onInsert Callback
	onUpdate Callback
	onDelete Callback

	channel *channel
	ctx     context.Context
	cancel  context.CancelFunc
	log     *zap.Logger

	mu       sync.Mutex
	seq      uint64
	applied  uint64
	rows     []Row
	closed   bool
	deferred bool
}

// Deferred reports whether the handle never subscribed because a required
// scope value was missing at open time.
func (h *Handle) Deferred() bool {
	return h.deferred
}

// Rows returns the last applied result set.
func (h *Handle) Rows() []Row {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rows
}

// Close releases the channel. Idempotent: closing an already-closed or
// deferred handle is a no-op.
func (h *Handle) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
	}
	if h.registry != nil {
		h.registry.forget(h.key, h)
		if h.channel != nil {
			h.registry.bus.unsubscribe(h.channel)
		}
	}
}

func (h *Handle) eventLoop() {
	for evt := range h.channel.events {
		cb := h.callbackFor(evt.Kind)
		// One refetch per event, no coalescing. Bursts race and the
		// last-resolved response wins regardless of event order.
		go h.refetch(evt, h.nextSeq(), cb)
	}
}

func (h *Handle) callbackFor(kind Kind) Callback {
	switch kind {
	case KindInsert:
		return h.onInsert
	case KindUpdate:
		return h.onUpdate
	case KindDelete:
		return h.onDelete
	default:
		return nil
	}
}

func (h *Handle) nextSeq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	return h.seq
}

// refetch performs the authoritative read and applies the result if it is
// still current. Failures leave the previous rows in place: the next event or
// remount will try again.
func (h *Handle) refetch(evt Event, seq uint64, cb Callback) {
	if h.fetch == nil {
		return
	}

	rows, err := h.fetch(h.ctx)
	if err != nil {
		metrics.RefetchFailures.WithLabelValues(h.table).Inc()
		h.log.Warn("refetch failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	if h.closed || seq < h.applied {
		// Unmounted, or a newer response already landed.
		h.mu.Unlock()
		return
	}
	h.applied = seq
	h.rows = rows
	h.mu.Unlock()

	if cb != nil {
		cb(evt, rows)
	}
}
