package webpanel

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/eternisai/push-panel/internal/logger"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// client serializes writes to one connection; gorilla allows a single writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

func (c *client) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, data)
}

// Hub fans panel updates out to every connected page.
type Hub struct {
	clients map[*websocket.Conn]*client
	mu      sync.RWMutex
	logger  *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		logger:  logger,
	}
}

// register adds a connection.
func (h *Hub) register(conn *websocket.Conn) *client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &client{conn: conn}
	h.clients[conn] = c

	h.logger.WithComponent("websocket_hub").Debug("connection registered",
		slog.String("remote_addr", conn.RemoteAddr().String()),
		slog.Int("connections", len(h.clients)))
	return c
}

// unregister removes a connection.
func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, conn)

	h.logger.WithComponent("websocket_hub").Debug("connection unregistered",
		slog.Int("connections", len(h.clients)))
}

// Count returns the number of connected pages.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends message to every connection. Connections that fail to
// accept it are closed; their read loop unregisters them.
func (h *Hub) Broadcast(message WebSocketMessage) {
	h.mu.RLock()
	if len(h.clients) == 0 {
		h.mu.RUnlock()
		return
	}
	// Copy so the lock is not held during writes.
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.WithComponent("websocket_hub").Error("failed to marshal message",
			slog.String("message_type", message.Type),
			slog.String("error", err.Error()))
		return
	}

	for _, c := range clients {
		if err := c.write(websocket.TextMessage, messageBytes); err != nil {
			h.logger.WithComponent("websocket_hub").Warn("failed to send message",
				slog.String("message_type", message.Type),
				slog.String("error", err.Error()))
			c.conn.Close()
		}
	}
}
