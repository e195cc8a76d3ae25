package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradegatehq/tradegate/internal/database/testutil"
	"github.com/tradegatehq/tradegate/internal/models"
)

// memoryTable is a FetchFunc backed by a mutable slice, standing in for the
// authoritative store.
type memoryTable struct {
	mu   sync.Mutex
	rows []Row
}

func (m *memoryTable) set(rows ...Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
}

func (m *memoryTable) fetch(ctx context.Context) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Row, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

func waitForRows(t *testing.T, ch <-chan []Row) []Row {
	t.Helper()
	select {
	case rows := <-ch:
		return rows
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refreshed rows")
		return nil
	}
}

func TestOpenPerformsInitialFetch(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	registry := NewRegistry(bus)

	table := &memoryTable{}
	table.set(Row{"id": "q1", "status": "pending"})

	refreshed := make(chan []Row, 1)
	h := registry.Open(context.Background(), OpenInput{
		Table: "quote_requests",
		Fetch: table.fetch,
		OnRefresh: func(evt Event, rows []Row) {
			refreshed <- rows
		},
	})
	defer h.Close()

	rows := waitForRows(t, refreshed)
	require.Len(t, rows, 1)
	require.Equal(t, "q1", rows[0].ID())
}

func TestEventTriggersAuthoritativeRefetch(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	registry := NewRegistry(bus)

	table := &memoryTable{}
	table.set(Row{"id": "q1", "status": "pending"})

	updated := make(chan []Row, 4)
	h := registry.Open(context.Background(), OpenInput{
		Table: "quote_requests",
		Fetch: table.fetch,
		OnUpdate: func(evt Event, rows []Row) {
			updated <- rows
		},
	})
	defer h.Close()

	// The event payload is stale on purpose: display state must come from
	// the refetch, not from the event.
	table.set(Row{"id": "q1", "status": "approved"})
	bus.Publish(Event{
		Kind:  KindUpdate,
		Table: "quote_requests",
		Old:   Row{"id": "q1", "status": "pending"},
		New:   Row{"id": "q1", "status": "processing"},
	})

	rows := waitForRows(t, updated)
	require.Len(t, rows, 1)
	require.Equal(t, "approved", rows[0].String("status"))
}

func TestCloseIsIdempotent(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	registry := NewRegistry(bus)

	table := &memoryTable{}
	h := registry.Open(context.Background(), OpenInput{
		Table: "quote_requests",
		Fetch: table.fetch,
	})

	h.Close()
	h.Close() // no panic, no duplicate teardown
}

func TestReopenSameKeyClosesPrevious(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	registry := NewRegistry(bus)

	table := &memoryTable{}
	first := registry.Open(context.Background(), OpenInput{
		Table: "quote_requests",
		Fetch: table.fetch,
	})
	second := registry.Open(context.Background(), OpenInput{
		Table: "quote_requests",
		Fetch: table.fetch,
	})
	defer second.Close()

	require.Eventually(t, func() bool {
		first.mu.Lock()
		defer first.mu.Unlock()
		return first.closed
	}, time.Second, 10*time.Millisecond, "expected first handle to be closed by reopen")

	bus.mu.RLock()
	live := len(bus.subs)
	bus.mu.RUnlock()
	require.Equal(t, 1, live, "exactly one live channel for the key")
}

func TestRequireScopeDefersWithoutOwner(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	registry := NewRegistry(bus)

	table := &memoryTable{}
	h := registry.Open(context.Background(), OpenInput{
		Table:        "quote_requests",
		Scope:        Filter{Column: "user_id"},
		RequireScope: true,
		Fetch:        table.fetch,
	})

	require.True(t, h.Deferred())
	h.Close()
	h.Close()

	bus.mu.RLock()
	live := len(bus.subs)
	bus.mu.RUnlock()
	require.Zero(t, live, "deferred open must not subscribe unscoped")
}

func TestLastResponseWins(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	registry := NewRegistry(bus)

	table := &memoryTable{}
	h := registry.Open(context.Background(), OpenInput{
		Table: "quote_requests",
		Fetch: table.fetch,
	})
	defer h.Close()

	// Simulate two in-flight refetches resolving out of order: the response
	// carrying the later sequence lands first, then the earlier one.
	newer := h.nextSeq()

	table.set(Row{"id": "q1", "status": "approved"})
	h.refetch(Event{Kind: KindUpdate, Table: "quote_requests"}, newer+1, nil)

	table.set(Row{"id": "q1", "status": "pending"})
	h.refetch(Event{Kind: KindUpdate, Table: "quote_requests"}, newer, nil)

	rows := h.Rows()
	require.Len(t, rows, 1)
	require.Equal(t, "approved", rows[0].String("status"),
		"stale response must not overwrite a newer one")
}

func TestRefetchAfterCloseIsDiscarded(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	registry := NewRegistry(bus)

	table := &memoryTable{}
	h := registry.Open(context.Background(), OpenInput{
		Table: "quote_requests",
		Fetch: table.fetch,
	})

	h.Close()

	called := false
	table.set(Row{"id": "q1"})
	h.refetch(Event{Kind: KindUpdate, Table: "quote_requests"}, h.nextSeq(), func(evt Event, rows []Row) {
		called = true
	})

	require.False(t, called, "no update after unmount")
	require.Empty(t, h.Rows())
}

func TestRefetchFailureKeepsStaleRows(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	registry := NewRegistry(bus)

	table := &memoryTable{}
	table.set(Row{"id": "q1", "status": "pending"})

	refreshed := make(chan []Row, 1)
	h := registry.Open(context.Background(), OpenInput{
		Table: "quote_requests",
		Fetch: table.fetch,
		OnRefresh: func(evt Event, rows []Row) {
			refreshed <- rows
		},
	})
	defer h.Close()
	waitForRows(t, refreshed)

	failing := func(ctx context.Context) ([]Row, error) {
		return nil, context.DeadlineExceeded
	}
	h.fetch = failing
	h.refetch(Event{Kind: KindUpdate, Table: "quote_requests"}, h.nextSeq(), nil)

	rows := h.Rows()
	require.Len(t, rows, 1, "stale list remains displayed after a failed refetch")
}

func TestTableFetcherReadsAuthoritativeState(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	older := models.QuoteRequest{UserID: "u1", ProductName: "Valve", Status: models.StatusPending}
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&older).Error)

	newer := models.QuoteRequest{UserID: "u1", ProductName: "Pipe", Status: models.StatusPending}
	require.NoError(t, db.Create(&newer).Error)

	other := models.QuoteRequest{UserID: "u2", ProductName: "Flange", Status: models.StatusPending}
	require.NoError(t, db.Create(&other).Error)

	fetch := NewTableFetcher(db, "quote_requests", Filter{Column: "user_id", Value: "u1"})
	rows, err := fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Pipe", rows[0].String("product_name"), "ordered by creation time descending")
	require.Equal(t, "Valve", rows[1].String("product_name"))
}
