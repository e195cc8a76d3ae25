package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradegatehq/tradegate/internal/database/testutil"
	"github.com/tradegatehq/tradegate/internal/feed"
	apperrors "github.com/tradegatehq/tradegate/pkg/errors"
)

func waitForEvent(t *testing.T, ch <-chan feed.Event) feed.Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for feed event")
		return feed.Event{}
	}
}

func TestQuoteServiceCreatePublishesInsert(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	bus := feed.NewBus()
	defer bus.Close()
	registry := feed.NewRegistry(bus)
	defer registry.Close()

	svc, err := NewQuoteService(db, bus)
	require.NoError(t, err)

	events := make(chan feed.Event, 4)
	h := registry.Open(context.Background(), feed.OpenInput{
		Table: "quote_requests",
		Fetch: feed.NewTableFetcher(db, "quote_requests", feed.Filter{}),
		OnInsert: func(evt feed.Event, rows []feed.Row) {
			events <- evt
		},
	})
	defer h.Close()

	quote, err := svc.Create(context.Background(), CreateQuoteInput{
		UserID:      "user-1",
		ProductName: "Industrial Valve",
		Quantity:    0,
		Message:     "Need pricing for 500 units",
	})
	require.NoError(t, err)
	require.Equal(t, "pending", quote.Status)
	require.Equal(t, 1, quote.Quantity, "quantity defaults to 1")

	evt := waitForEvent(t, events)
	require.Equal(t, feed.KindInsert, evt.Kind)
	require.Equal(t, quote.ID, evt.New.ID())
	require.Equal(t, "user-1", evt.New.String("user_id"))
}

func TestQuoteServiceRespondPublishesUpdateWithOldRow(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	bus := feed.NewBus()
	defer bus.Close()
	registry := feed.NewRegistry(bus)
	defer registry.Close()

	svc, err := NewQuoteService(db, bus)
	require.NoError(t, err)
	ctx := context.Background()

	quote, err := svc.Create(ctx, CreateQuoteInput{UserID: "user-1", ProductName: "Valve"})
	require.NoError(t, err)

	events := make(chan feed.Event, 4)
	h := registry.Open(ctx, feed.OpenInput{
		Table: "quote_requests",
		Fetch: feed.NewTableFetcher(db, "quote_requests", feed.Filter{}),
		OnUpdate: func(evt feed.Event, rows []feed.Row) {
			events <- evt
		},
	})
	defer h.Close()

	status := "approved"
	response := "Quote attached, valid 30 days"
	updated, err := svc.Respond(ctx, quote.ID, RespondQuoteInput{
		Status:        &status,
		AdminResponse: &response,
	})
	require.NoError(t, err)
	require.Equal(t, "approved", updated.Status)
	require.Equal(t, response, updated.AdminResponse)

	evt := waitForEvent(t, events)
	require.Equal(t, feed.KindUpdate, evt.Kind)
	require.Equal(t, "pending", evt.Old.String("status"))
	require.Equal(t, "approved", evt.New.String("status"))
	require.Empty(t, evt.Old.String("admin_response"))
	require.Equal(t, response, evt.New.String("admin_response"))
}

func TestQuoteServiceScopedSubscriptionSeesOnlyOwnRows(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	bus := feed.NewBus()
	defer bus.Close()
	registry := feed.NewRegistry(bus)
	defer registry.Close()

	svc, err := NewQuoteService(db, bus)
	require.NoError(t, err)
	ctx := context.Background()

	events := make(chan feed.Event, 4)
	h := registry.Open(ctx, feed.OpenInput{
		Table: "quote_requests",
		Scope: feed.Filter{Column: "user_id", Value: "user-1"},
		Fetch: feed.NewTableFetcher(db, "quote_requests", feed.Filter{Column: "user_id", Value: "user-1"}),
		OnInsert: func(evt feed.Event, rows []feed.Row) {
			events <- evt
		},
	})
	defer h.Close()

	_, err = svc.Create(ctx, CreateQuoteInput{UserID: "user-2", ProductName: "Pipe"})
	require.NoError(t, err)
	mine, err := svc.Create(ctx, CreateQuoteInput{UserID: "user-1", ProductName: "Valve"})
	require.NoError(t, err)

	evt := waitForEvent(t, events)
	require.Equal(t, mine.ID, evt.New.ID(), "foreign rows never reach a scoped channel")
	select {
	case extra := <-events:
		t.Fatalf("unexpected extra event for row %s", extra.New.ID())
	case <-time.After(100 * time.Millisecond):
	}
}

func TestQuoteServiceListsAndDelete(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewQuoteService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateQuoteInput{UserID: "user-1", ProductName: "Valve"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := svc.Create(ctx, CreateQuoteInput{UserID: "user-1", ProductName: "Pipe"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateQuoteInput{UserID: "user-2", ProductName: "Flange"})
	require.NoError(t, err)

	mine, err := svc.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, second.ID, mine[0].ID, "newest first")

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	require.NoError(t, svc.Delete(ctx, first.ID))
	_, err = svc.GetByID(ctx, first.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
