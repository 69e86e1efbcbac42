// Package ws streams live KPI snapshots to dashboards over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/rotorsim/internal/domain/model"
	"github.com/okian/rotorsim/pkg/logger"
	"github.com/okian/rotorsim/pkg/metrics"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16

	readLimit = 512

	eventKPI = "kpi"
)

// Message is the JSON envelope sent to clients on every broadcast.
type Message struct {
	Event string         `json:"event"`
	Data  model.Snapshot `json:"data"`
}

// Source provides the snapshot to broadcast without advancing the model.
type Source interface {
	Peek(ctx context.Context) model.Snapshot
}

// Hub manages WebSocket clients and broadcasts the current snapshot to all
// of them every interval.
type Hub struct {
	source   Source
	interval time.Duration
	upgrader websocket.Upgrader
	logger   logger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a hub reading from source every interval. Origins are checked
// against allowedOrigin; "*" accepts any origin.
func New(source Source, interval time.Duration, allowedOrigin string) *Hub {
	h := &Hub{
		source:   source,
		interval: interval,
		logger:   logger.Get().Named("stream"),
		clients:  make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
		},
	}
	return h
}

// Run broadcasts until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast(ctx)
		}
	}
}

// ServeHTTP upgrades the connection and serves the client until it goes
// away. The current snapshot is sent immediately on connect.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		h.logger.Debug(r.Context(), "stream upgrade failed", logger.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufSize)}
	h.register(c)
	defer h.unregister(c)

	if data, err := h.buildMessage(r.Context()); err == nil {
		h.enqueue(c, data)
	}

	go c.writePump()
	c.readPump()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.UpdateStreamClients(n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.UpdateStreamClients(n)
}

func (h *Hub) broadcast(ctx context.Context) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := h.buildMessage(ctx)
	if err != nil {
		h.logger.Error(ctx, "stream encode failed", logger.Error(err))
		return
	}

	for _, c := range targets {
		if !h.enqueue(c, data) {
			h.logger.Debug(ctx, "dropping slow stream client")
			h.unregister(c)
		}
	}
}

// enqueue queues data for c. It reports false only when c is still
// registered but its buffer is full.
func (h *Hub) enqueue(c *client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, live := h.clients[c]; !live {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) buildMessage(ctx context.Context) ([]byte, error) {
	return json.Marshal(Message{Event: eventKPI, Data: h.source.Peek(ctx)})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()
	metrics.UpdateStreamClients(0)
}

// writePump forwards queued messages and periodic pings to the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles control frames and detects disconnects.
func (c *client) readPump() {
	defer func() { _ = c.conn.Close() }()
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
