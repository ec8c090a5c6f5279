package notify

import (
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/exportai/backend/internal/metrics"
	"github.com/exportai/backend/internal/storage/models"
	"github.com/exportai/backend/pkg/logger"
)

// Conn is the write surface of a websocket connection.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
}

// Client serializes writes to one websocket connection. The underlying
// library permits at most one concurrent writer per connection, while
// pushes arrive from arbitrary request goroutines and keepalive pings
// from the connection's own goroutine. Every write goes through here.
type Client struct {
	userID int64
	mu     sync.Mutex
	conn   Conn
}

func (c *Client) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Ping sends a keepalive control frame.
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Hub tracks open websocket connections per user and fans notifications
// out to all of a user's devices. Delivery is best effort; the row is
// already persisted, so a dropped socket only loses the live push.
type Hub struct {
	mu    sync.RWMutex
	conns map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[int64]map[*Client]struct{}),
	}
}

// Register adds a connection and returns the handle all writes to it
// must go through.
func (h *Hub) Register(userID int64, conn Conn) *Client {
	client := &Client{userID: userID, conn: conn}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*Client]struct{})
	}
	h.conns[userID][client] = struct{}{}

	logger.Debug("WebSocket registered", zap.Int64("user_id", userID))
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.conns[client.userID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(h.conns, client.userID)
		}
	}

	logger.Debug("WebSocket unregistered", zap.Int64("user_id", client.userID))
}

// Push writes a notification to every open connection for its user.
func (h *Hub) Push(n *models.Notification) {
	h.mu.RLock()
	set := h.conns[n.UserID]
	clients := make([]*Client, 0, len(set))
	for client := range set {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	msg := map[string]interface{}{
		"type":         "notification",
		"notification": n,
	}

	for _, client := range clients {
		if err := client.WriteJSON(msg); err != nil {
			logger.Warn("Failed to push notification",
				zap.Int64("user_id", n.UserID),
				zap.Error(err),
			)
			continue
		}
		metrics.NotificationsPushed.Inc()
	}
}

// Connections reports how many sockets one user currently holds.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}
