package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ywy929/assay-dashboard-backend/models"
)

// Event kinds pushed over the notification socket. "superseded" means an
// earlier alert for the same assay was replaced by a revert.
const (
	EventNotificationCreated    = "notification.created"
	EventNotificationSuperseded = "notification.superseded"
)

// NotificationEvent is the wire payload for one notification change. The
// client uses Kind to decide whether to insert or replace, and AssayID to
// collapse events for the same assay.
type NotificationEvent struct {
	Kind         string              `json:"kind"`
	AssayID      uint                `json:"assay_id"`
	Notification models.Notification `json:"notification"`
	SentAt       time.Time           `json:"sent_at"`
}

func newNotificationEvent(kind string, record models.Notification) NotificationEvent {
	return NotificationEvent{
		Kind:         kind,
		AssayID:      record.AssayID,
		Notification: record,
		SentAt:       time.Now(),
	}
}

type WSClient struct {
	UserID uint
	Conn   *websocket.Conn
}

// RealtimeHub fans notification events out to a user's connected
// websocket clients.
type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[uint]map[*WSClient]struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{clients: make(map[uint]map[*WSClient]struct{})}
}

func (h *RealtimeHub) Register(c *WSClient) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*WSClient]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	_ = c.Conn.Close()
}

// Broadcast delivers the event to every socket the user has open. Slow
// or dead sockets drop the message; push delivery is the durable path.
func (h *RealtimeHub) Broadcast(userID uint, event NotificationEvent) {
	msg, _ := json.Marshal(event)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		_ = c.Conn.WriteMessage(websocket.TextMessage, msg)
	}
}
