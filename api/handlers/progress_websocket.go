package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/tube-fetch-go/internal/app"
	"github.com/yourusername/tube-fetch-go/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// ProgressWebSocketHandler streams progress envelopes to connected clients
type ProgressWebSocketHandler struct {
	hub      *app.EventHub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewProgressWebSocketHandler creates a new websocket handler
func NewProgressWebSocketHandler(hub *app.EventHub, logger *zap.Logger) *ProgressWebSocketHandler {
	return &ProgressWebSocketHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The API binds to loopback only
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream handles GET /ws/progress
func (h *ProgressWebSocketHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	id, events := h.hub.Subscribe()
	h.logger.Debug("Progress subscriber connected", zap.Int("subscriber", id))

	go h.readPump(conn, id)
	h.writePump(conn, id, events)
}

// readPump drains client messages so control frames are processed, and
// unsubscribes when the client goes away.
func (h *ProgressWebSocketHandler) readPump(conn *websocket.Conn, id int) {
	defer h.hub.Unsubscribe(id)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards envelopes to the client until the subscription or the
// connection closes.
func (h *ProgressWebSocketHandler) writePump(conn *websocket.Conn, id int, events <-chan domain.Envelope) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case env, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(env); err != nil {
				h.logger.Debug("Progress subscriber write failed",
					zap.Int("subscriber", id),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
