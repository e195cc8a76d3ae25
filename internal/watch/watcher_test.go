package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradegatehq/tradegate/internal/bridge"
	"github.com/tradegatehq/tradegate/internal/database/testutil"
	"github.com/tradegatehq/tradegate/internal/feed"
	"github.com/tradegatehq/tradegate/internal/realtime"
	"github.com/tradegatehq/tradegate/internal/services"
)

type recordedMessage struct {
	stream string
	userID string
	msg    realtime.Message
}

type fakeHub struct {
	mu       sync.Mutex
	messages []recordedMessage
}

func (f *fakeHub) BroadcastStream(stream string, message realtime.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, recordedMessage{stream: stream, msg: message})
}

func (f *fakeHub) BroadcastToUser(stream, userID string, message realtime.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, recordedMessage{stream: stream, userID: userID, msg: message})
}

func (f *fakeHub) find(stream, userID string) []recordedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedMessage
	for _, m := range f.messages {
		if m.stream == stream && m.userID == userID {
			out = append(out, m)
		}
	}
	return out
}

func TestWatcherRoutesQuoteLifecycle(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	bus := feed.NewBus()
	defer bus.Close()
	registry := feed.NewRegistry(bus)
	defer registry.Close()

	hub := &fakeHub{}
	notifications, err := services.NewNotificationService(db, nil)
	require.NoError(t, err)
	users, err := services.NewUserService(db)
	require.NoError(t, err)
	b := bridge.New(notifications, users, hub2notifier{hub})

	watcher, err := New(db, registry, b, hub)
	require.NoError(t, err)
	ctx := context.Background()
	watcher.Start(ctx)
	defer watcher.Stop()

	quotes, err := services.NewQuoteService(db, bus)
	require.NoError(t, err)

	quote, err := quotes.Create(ctx, services.CreateQuoteInput{
		UserID:      "user-1",
		ProductName: "Valve",
	})
	require.NoError(t, err)

	adminStream := realtime.AdminStream(realtime.StreamQuotes)
	require.Eventually(t, func() bool {
		return len(hub.find(adminStream, "")) > 0
	}, 2*time.Second, 10*time.Millisecond, "insert refreshes the back-office stream")

	require.Eventually(t, func() bool {
		return len(hub.find(realtime.StreamQuotes, "user-1")) > 0
	}, 2*time.Second, 10*time.Millisecond, "owner receives a refresh hint")

	status := "approved"
	_, err = quotes.Respond(ctx, quote.ID, services.RespondQuoteInput{Status: &status})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		items, err := notifications.ListForUser(ctx, services.ListNotificationsInput{UserID: "user-1"})
		return err == nil && len(items) == 1
	}, 2*time.Second, 10*time.Millisecond, "status change persists a durable notification")

	items, err := notifications.ListForUser(ctx, services.ListNotificationsInput{UserID: "user-1"})
	require.NoError(t, err)
	require.Contains(t, items[0].Message, "approved")
	require.Equal(t, "quote", items[0].Type)
}

func TestWatcherIgnoresUntrackedUpdates(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	bus := feed.NewBus()
	defer bus.Close()
	registry := feed.NewRegistry(bus)
	defer registry.Close()

	hub := &fakeHub{}
	notifications, err := services.NewNotificationService(db, nil)
	require.NoError(t, err)
	users, err := services.NewUserService(db)
	require.NoError(t, err)
	b := bridge.New(notifications, users, hub2notifier{hub})

	watcher, err := New(db, registry, b, hub)
	require.NoError(t, err)
	ctx := context.Background()
	watcher.Start(ctx)
	defer watcher.Stop()

	quotes, err := services.NewQuoteService(db, bus)
	require.NoError(t, err)

	quote, err := quotes.Create(ctx, services.CreateQuoteInput{UserID: "user-1", ProductName: "Valve"})
	require.NoError(t, err)

	// A response-free, status-free update must refresh streams but raise no
	// notification.
	same := quote.Status
	_, err = quotes.Respond(ctx, quote.ID, services.RespondQuoteInput{Status: &same})
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	items, err := notifications.ListForUser(ctx, services.ListNotificationsInput{UserID: "user-1"})
	require.NoError(t, err)
	require.Empty(t, items, "no tracked field changed")
}

// hub2notifier adapts the test hub to the bridge's notifier interface the same
// way the server adapts the realtime hub.
type hub2notifier struct {
	hub *fakeHub
}

func (a hub2notifier) PushNotice(userID string, notice realtime.Notice) {
	a.hub.BroadcastToUser(realtime.StreamNotifications, userID, realtime.Message{
		Event: "notice",
		Data:  notice,
	})
}
