package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialTestHub(t *testing.T, h *Hub, userID string, streams []string) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(userID, streams, nil, w, r)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func (h *Hub) connectionFor(t *testing.T, stream, userID string) *connection {
	t.Helper()

	var found *connection
	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		for client := range h.subscriptions[stream][userID] {
			found = client
			return true
		}
		return false
	}, time.Second, 10*time.Millisecond, "connection never registered")

	return found
}

func TestHubBroadcastToUserDelivers(t *testing.T) {
	h := NewHub()
	conn := dialTestHub(t, h, "user-1", []string{StreamNotifications})
	h.connectionFor(t, StreamNotifications, "user-1")

	h.BroadcastToUser(StreamNotifications, "user-1", Message{
		Event: "refresh",
		Meta:  map[string]any{"kind": "UPDATE"},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var received Message
	require.NoError(t, conn.ReadJSON(&received))
	require.Equal(t, StreamNotifications, received.Stream)
	require.Equal(t, "refresh", received.Event)
}

func TestHubPushNoticeReachesNotificationStream(t *testing.T) {
	h := NewHub()
	conn := dialTestHub(t, h, "user-1", []string{StreamNotifications})
	h.connectionFor(t, StreamNotifications, "user-1")

	h.PushNotice("user-1", Notice{Level: "success", Title: "Quote Update", Message: "approved"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var received Message
	require.NoError(t, conn.ReadJSON(&received))
	require.Equal(t, "notice", received.Event)
}

func TestHubEnqueueAfterCloseIsNoOp(t *testing.T) {
	h := NewHub()
	dialTestHub(t, h, "user-1", []string{StreamNotifications})
	client := h.connectionFor(t, StreamNotifications, "user-1")

	client.close()
	client.close()

	// A pong reply or broadcast racing the teardown must be dropped, not
	// delivered to a dead writer.
	require.NotPanics(t, func() {
		h.enqueue(client, Message{Event: "pong"})
		h.BroadcastToUser(StreamNotifications, "user-1", Message{Event: "refresh"})
		h.PushNotice("user-1", Notice{Level: "info", Title: "late"})
	})

	h.mu.RLock()
	_, stillRegistered := h.subscriptions[StreamNotifications]["user-1"]
	h.mu.RUnlock()
	require.False(t, stillRegistered)
}
