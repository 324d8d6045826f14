package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-live/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

// Hub is the connection registry: at most one live connection per user.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection // user_id -> connection
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewHub creates a new WebSocket hub. m may be nil.
func NewHub(m *metrics.Metrics, logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]*Connection),
		metrics:     m,
		logger:      logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Register makes conn the user's connection. A previous connection is closed
// and reported back so callers can tell a reconnect from a first login.
func (h *Hub) Register(conn *Connection) (replaced bool) {
	h.mu.Lock()
	old, exists := h.connections[conn.UserID]
	h.connections[conn.UserID] = conn
	h.mu.Unlock()

	if exists {
		old.Close()
	} else {
		h.metrics.ConnectionOpened()
	}
	h.logger.Info().
		Str("user_id", conn.UserID.String()).
		Str("connection_id", conn.ID).
		Bool("replaced", exists).
		Msg("connection registered")
	return exists
}

// Unregister removes conn if it is still the user's registered connection.
// It reports false when a newer connection has already replaced it.
func (h *Hub) Unregister(conn *Connection) bool {
	h.mu.Lock()
	current, exists := h.connections[conn.UserID]
	if !exists || current != conn {
		h.mu.Unlock()
		conn.Close()
		return false
	}
	delete(h.connections, conn.UserID)
	h.mu.Unlock()

	conn.Close()
	h.metrics.ConnectionClosed()
	h.logger.Info().
		Str("user_id", conn.UserID.String()).
		Str("connection_id", conn.ID).
		Msg("connection unregistered")
	return true
}

// SendToUser delivers a message to a specific user.
func (h *Hub) SendToUser(userID uuid.UUID, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return ErrConnectionNotFound
	}
	return conn.Send(msg)
}

// Emit encodes payload and delivers it to the user.
func (h *Hub) Emit(userID uuid.UUID, eventType string, payload any) error {
	msg, err := NewMessage(eventType, payload)
	if err != nil {
		return err
	}
	err = h.SendToUser(userID, msg)
	if err != nil && err != ErrConnectionNotFound {
		h.logger.Debug().Err(err).Str("user_id", userID.String()).Str("type", eventType).Msg("delivery dropped")
	}
	return err
}

// BroadcastAll sends a message to every connected user.
func (h *Hub) BroadcastAll(msg Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var firstErr error
	for userID, conn := range h.connections {
		if err := conn.Send(msg); err != nil && firstErr == nil {
			firstErr = err
			h.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("broadcast_all_send_failed")
		}
	}
	return firstErr
}

// IsOnline reports whether the user has a registered connection.
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Connection represents a WebSocket connection with send queue.
type Connection struct {
	ID     string
	UserID uuid.UUID

	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection for userID. conn may be nil in
// tests that only exercise the send queue.
func NewConnection(conn *websocket.Conn, userID uuid.UUID, logger zerolog.Logger) *Connection {
	id := uuid.NewString()
	return &Connection{
		ID:     id,
		UserID: userID,
		conn:   conn,
		sendCh: make(chan Message, sendBuffer),
		logger: logger.With().Str("connection_id", id).Logger(),
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection. Safe to call more than once.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	if c.conn != nil {
		c.conn.Close()
	}
}

// Closed reports whether Close has been called.
func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Outbox exposes queued messages. Only used when no WritePump runs.
func (c *Connection) Outbox() <-chan Message {
	return c.sendCh
}

// WritePump sends messages from the send queue and keeps the peer alive with pings.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump receives messages and calls the handler until the peer goes away.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.conn.Close()

	c.conn.SetReadLimit(64 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			break
		}

		if err := handler(msg); err != nil {
			c.logger.Warn().Err(err).Msg("message handler error")
		}
	}
}

var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "User connection not found"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
