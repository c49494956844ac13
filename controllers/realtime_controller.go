package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ywy929/assay-dashboard-backend/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type RealtimeController struct {
	Hub *services.RealtimeHub
}

func NewRealtimeController(hub *services.RealtimeHub) *RealtimeController {
	return &RealtimeController{Hub: hub}
}

// GET /ws/notifications — streams notification events for the
// authenticated user until the client disconnects.
func (rc *RealtimeController) Notifications(c *gin.Context) {
	uid := c.GetUint("userID")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed for user %d: %v", uid, err)
		return
	}

	client := &services.WSClient{UserID: uid, Conn: conn}
	rc.Hub.Register(client)
	defer rc.Hub.Unregister(client)

	// Drain client frames; the connection is server-to-client only.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
