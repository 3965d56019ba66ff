// Package events pushes store state snapshots to connected UI shells over a
// websocket, so every mutation is reflected without polling.
package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lukewhite/docuchat/internal/service/conversation"
)

const sendBuffer = 8

// envelope wraps every outbound frame.
type envelope struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan envelope
}

// Hub tracks connected clients and broadcasts state snapshots to them. A slow
// client has stale frames dropped rather than stalling the broadcaster.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

// Publish broadcasts a state snapshot to every connected client.
func (h *Hub) Publish(state conversation.State) {
	h.broadcast(envelope{
		Type:      "state",
		Data:      state,
		Timestamp: time.Now().UnixMilli(),
	})
}

// PublishKnowledgeEvent tells clients the knowledge base changed, so document
// panels can refresh independently of chat state.
func (h *Hub) PublishKnowledgeEvent(kind string) {
	h.broadcast(envelope{
		Type:      "knowledge",
		Data:      map[string]string{"event": kind},
		Timestamp: time.Now().UnixMilli(),
	})
}

func (h *Hub) broadcast(msg envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Buffer full: the client is behind, stale snapshots are safe to drop.
		}
	}
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan envelope, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)
	h.readLoop(c)
}

// readLoop drains inbound frames until the peer disconnects. Clients send
// nothing meaningful; reading only detects closure.
func (h *Hub) readLoop(c *client) {
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}
