package handlers

import (
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/pipeline"
	"github.com/interview-iq/backend/pkg/logger"
)

// ProgressHub fans pipeline progress events out to connected websocket
// clients. A client may filter to one session by sending
// {"sessionId": "..."} as its first message; otherwise it receives all
// events.
type ProgressHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]string
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{clients: map[*websocket.Conn]string{}}
}

// Publish implements pipeline.ProgressFunc.
func (h *ProgressHub) Publish(event pipeline.ProgressEvent) {
	h.mu.RLock()
	conns := make(map[*websocket.Conn]string, len(h.clients))
	for c, filter := range h.clients {
		conns[c] = filter
	}
	h.mu.RUnlock()

	for c, filter := range conns {
		if filter != "" && filter != event.SessionID {
			continue
		}
		if err := c.WriteJSON(event); err != nil {
			logger.Debug("Dropping websocket client", zap.Error(err))
			h.remove(c)
		}
	}
}

func (h *ProgressHub) add(c *websocket.Conn, sessionID string) {
	h.mu.Lock()
	h.clients[c] = sessionID
	h.mu.Unlock()
}

func (h *ProgressHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *ProgressHub) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")
	h.add(c, "")

	defer func() {
		h.remove(c)
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			SessionID string `json:"sessionId"`
		}
		if err := c.ReadJSON(&msg); err != nil {
			break
		}
		if msg.SessionID != "" {
			h.add(c, msg.SessionID)
		}
	}
}
