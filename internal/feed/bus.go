package feed

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/tradegatehq/tradegate/pkg/logger"
	"github.com/tradegatehq/tradegate/pkg/metrics"
)

// Status reflects the lifecycle of a logical channel. It is surfaced for
// logging only; the feed performs no reconnection of its own.
type Status string

// Channel lifecycle states.
const (
	StatusSubscribed   Status = "SUBSCRIBED"
	StatusChannelError Status = "CHANNEL_ERROR"
	StatusClosed       Status = "CLOSED"
)

const defaultChannelBuffer = 32

// Bus is the in-process change feed: writers publish row-level events and
// subscribers receive those matching their table and filter.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*channel]struct{}
	closed bool
	log    *zap.Logger
}

// channel is one logical subscription against the bus.
type channel struct {
	table    string
	filter   Filter
	events   chan Event
	onStatus func(Status)

	once sync.Once
}

// NewBus constructs an empty change-feed bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[*channel]struct{}),
		log:  logger.WithModule("feed"),
	}
}

// Publish delivers an event to every matching subscriber. Delivery is
// non-blocking: a subscriber whose buffer is full sees a channel error status
// and misses the event, which the refetch-on-event strategy tolerates.
func (b *Bus) Publish(evt Event) {
	if evt.Table == "" {
		return
	}
	metrics.FeedEvents.WithLabelValues(evt.Table, string(evt.Kind)).Inc()

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	row := evt.rowFor()
	for ch := range b.subs {
		if ch.table != evt.Table {
			continue
		}
		if !ch.filter.IsZero() && !ch.filter.Matches(row) {
			continue
		}
		select {
		case ch.events <- evt:
		default:
			b.log.Warn("dropping event for slow subscriber",
				zap.String("table", evt.Table),
				zap.String("kind", string(evt.Kind)),
			)
			ch.notify(StatusChannelError)
		}
	}
}

// subscribe opens a logical channel for the table, optionally filtered.
// The status callback, when provided, observes channel lifecycle changes.
func (b *Bus) subscribe(table string, filter Filter, buffer int, onStatus func(Status)) (*channel, error) {
	if table == "" {
		return nil, errors.New("feed: table is required")
	}
	if buffer <= 0 {
		buffer = defaultChannelBuffer
	}

	ch := &channel{
		table:    table,
		filter:   filter,
		events:   make(chan Event, buffer),
		onStatus: onStatus,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("feed: bus is closed")
	}
	b.subs[ch] = struct{}{}

	ch.notify(StatusSubscribed)
	return ch, nil
}

// unsubscribe tears down a channel. Safe to call more than once.
func (b *Bus) unsubscribe(ch *channel) {
	if ch == nil {
		return
	}

	b.mu.Lock()
	_, present := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()

	if present {
		ch.close()
	}
}

// Close tears down every open channel and rejects further subscriptions.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		ch.close()
	}
}

func (c *channel) notify(status Status) {
	if c.onStatus != nil {
		c.onStatus(status)
	}
}

func (c *channel) close() {
	c.once.Do(func() {
		c.notify(StatusClosed)
		close(c.events)
	})
}
