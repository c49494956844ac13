package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ywy929/assay-dashboard-backend/models"
)

// dialHub upgrades one websocket against the hub and returns the client
// side of the connection.
func dialHub(t *testing.T, hub *RealtimeHub, userID uint) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(&WSClient{UserID: userID, Conn: conn})
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// Registration happens on the server goroutine after the upgrade.
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients[userID]) == 1
	}, time.Second, 10*time.Millisecond)

	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) NotificationEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var event NotificationEvent
	require.NoError(t, json.Unmarshal(msg, &event))
	return event
}

func TestBroadcastDeliversTypedEvent(t *testing.T) {
	hub := NewRealtimeHub()
	conn := dialHub(t, hub, 7)

	record := models.Notification{UserID: 7, AssayID: 42, Title: "Assay Ready"}
	hub.Broadcast(7, newNotificationEvent(EventNotificationCreated, record))

	event := readEvent(t, conn)
	assert.Equal(t, EventNotificationCreated, event.Kind)
	assert.Equal(t, uint(42), event.AssayID)
	assert.Equal(t, "Assay Ready", event.Notification.Title)
	assert.False(t, event.SentAt.IsZero())
}

func TestBroadcastScopedToUser(t *testing.T) {
	hub := NewRealtimeHub()
	mine := dialHub(t, hub, 7)
	other := dialHub(t, hub, 8)

	hub.Broadcast(7, newNotificationEvent(EventNotificationSuperseded, models.Notification{
		UserID: 7, AssayID: 1, Title: "Assay Not Ready",
	}))

	event := readEvent(t, mine)
	assert.Equal(t, EventNotificationSuperseded, event.Kind)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestUnregisterStopsDelivery(t *testing.T) {
	hub := NewRealtimeHub()
	conn := dialHub(t, hub, 7)

	hub.mu.RLock()
	var client *WSClient
	for c := range hub.clients[7] {
		client = c
	}
	hub.mu.RUnlock()
	require.NotNil(t, client)

	hub.Unregister(client)

	hub.mu.RLock()
	_, registered := hub.clients[7]
	hub.mu.RUnlock()
	assert.False(t, registered)

	// Unregister closed the server side, so the client read fails.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
