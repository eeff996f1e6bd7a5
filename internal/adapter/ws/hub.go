package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/poaching-risk-service/internal/domain"
	"github.com/couchcryptid/poaching-risk-service/internal/observability"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	pingPeriod   = 54 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 32
	maxReadBytes = 1024
)

// Message types pushed to subscribers.
const (
	TypeAck    = "ack"
	TypeAlerts = "alerts"
	TypePing   = "ping"
)

// Message is the JSON frame written to every subscriber.
type Message struct {
	Type      string              `json:"type"`
	Data      string              `json:"data,omitempty"`
	Alerts    []domain.AlertEvent `json:"alerts,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// Hub fans relayed alerts out to WebSocket subscribers. One goroutine (Run)
// owns the subscriber set; each connection gets its own read and write pump.
// It implements pipeline.AlertLoader.
type Hub struct {
	upgrader websocket.Upgrader
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *slog.Logger

	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan Message
	done       chan struct{}

	subscribers atomic.Int64
	nextID      atomic.Uint64
}

type client struct {
	hub  *Hub
	id   string
	conn *websocket.Conn
	send chan Message
}

// NewHub creates a hub. Call Run before serving connections.
func NewHub(metrics *observability.Metrics, logger *slog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// The dashboard is served from a different origin than the API.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clock:      clockwork.NewRealClock(),
		metrics:    metrics,
		logger:     logger,
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Message, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Run owns the subscriber set until ctx is cancelled, then disconnects
// everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			h.setSubscribers()
			select {
			case c.send <- Message{Type: TypeAck, Data: "subscribed to alerts", Timestamp: h.clock.Now()}:
			default:
				h.drop(c)
			}
			h.logger.Debug("stream client connected", "client", c.id)

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				h.logger.Debug("stream client disconnected", "client", c.id)
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer.
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.setSubscribers()
}

func (h *Hub) setSubscribers() {
	n := int64(len(h.clients))
	h.subscribers.Store(n)
	h.metrics.StreamSubscribers.Set(float64(n))
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	return int(h.subscribers.Load())
}

// LoadBatch queues events for every subscriber.
func (h *Hub) LoadBatch(ctx context.Context, events []domain.AlertEvent) error {
	if len(events) == 0 {
		return nil
	}
	msg := Message{Type: TypeAlerts, Alerts: events, Timestamp: h.clock.Now()}
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeHTTP upgrades the request and subscribes the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:  h,
		id:   strconv.FormatUint(h.nextID.Add(1), 10),
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// writePump writes queued messages and keepalive pings until the hub closes
// the send channel or a write fails.
func (c *client) writePump() {
	ticker := c.hub.clock.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(c.hub.clock.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.hub.logger.Debug("stream write failed", "client", c.id, "error", err)
				return
			}

		case <-ticker.Chan():
			_ = c.conn.SetWriteDeadline(c.hub.clock.Now().Add(writeWait))
			if err := c.conn.WriteJSON(Message{Type: TypePing, Timestamp: c.hub.clock.Now()}); err != nil {
				return
			}
		}
	}
}

// readPump drains inbound frames so close and pong control messages are
// processed, and unregisters the client when the connection ends.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxReadBytes)
	// Clear any deadline inherited from the HTTP server's ReadTimeout.
	_ = c.conn.SetReadDeadline(time.Time{})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("stream read failed", "client", c.id, "error", err)
			}
			return
		}
	}
}
