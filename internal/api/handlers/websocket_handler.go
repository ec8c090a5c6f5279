package handlers

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/exportai/backend/internal/notify"
	"github.com/exportai/backend/internal/storage/sqlite"
	"github.com/exportai/backend/pkg/logger"
)

const pingInterval = 30 * time.Second

// WebSocketHandler streams notifications to a connected client. The
// socket is push-only apart from a ping/pong keepalive; clients mutate
// notification state over the REST surface.
type WebSocketHandler struct {
	store *sqlite.Client
	hub   *notify.Hub
}

func NewWebSocketHandler(store *sqlite.Client, hub *notify.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		store: store,
		hub:   hub,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	userID, ok := c.Locals("user_id").(int64)
	if !ok {
		c.Close()
		return
	}

	logger.Info("Notification stream opened", zap.Int64("user_id", userID))

	// All writes go through the hub client so pushes from request
	// goroutines and the keepalive never write concurrently.
	client := h.hub.Register(userID, c)
	defer func() {
		h.hub.Unregister(client)
		c.Close()
		logger.Info("Notification stream closed", zap.Int64("user_id", userID))
	}()

	h.sendBacklog(client, userID)

	done := make(chan struct{})
	defer close(done)
	go h.keepalive(client, done)

	// Drain client frames so pongs and close frames are processed.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

// sendBacklog pushes the current unread count so the client can render a
// badge before any new notification arrives.
func (h *WebSocketHandler) sendBacklog(client *notify.Client, userID int64) {
	unread, err := h.store.UnreadCount(userID)
	if err != nil {
		logger.Warn("Failed to load unread count", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	msg := map[string]interface{}{
		"type":         "connected",
		"unread_count": unread,
	}
	if err := client.WriteJSON(msg); err != nil {
		logger.Warn("Failed to send unread count", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (h *WebSocketHandler) keepalive(client *notify.Client, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := client.Ping(); err != nil {
				return
			}
		}
	}
}
