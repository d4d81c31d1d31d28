package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
)

const (
	writeWait          = 10 * time.Second
	pongWait           = 60 * time.Second
	pingPeriod         = (pongWait * 9) / 10
	maxMessageSize     = 4 * 1024
	maxSendChannelSize = 64
)

// Inbound message types.
const (
	InEventInput  = "input"
	InEventSelect = "select"
)

// InEvent is a message sent by the browser.
type InEvent struct {
	Type     string `json:"type"`
	Query    string `json:"query,omitempty"`
	Location string `json:"location,omitempty"`
	FileID   string `json:"file_id,omitempty"`
}

var ErrTooManyConnections = errors.New("too many search connections")

type HubOptions struct {
	MaxConnectionsPerUser int
}

// Hub keeps track of open search connections so that they can be limited per
// user and closed together on shutdown.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*Client]struct{} // userID -> clients
	options  HubOptions
	shutdown bool
	metrics  *Metrics
}

type Metrics struct {
	Connections      atomic.Int64
	MessagesReceived atomic.Int64
	MessagesSent     atomic.Int64
	Dropped          atomic.Int64
}

func NewHub(options ...HubOptions) *Hub {
	opts := HubOptions{MaxConnectionsPerUser: 5}
	if len(options) > 0 {
		opts = options[0]
	}

	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		options: opts,
		metrics: &Metrics{},
	}
}

func (h *Hub) Metrics() *Metrics { return h.metrics }

func (h *Hub) MaxConnectionsPerUser() int { return h.options.MaxConnectionsPerUser }

func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.shutdown {
		return errors.New("hub is shut down")
	}

	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	if len(set) >= h.options.MaxConnectionsPerUser {
		return ErrTooManyConnections
	}

	set[c] = struct{}{}
	c.metrics = h.metrics
	h.metrics.Connections.Inc()
	return nil
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}

	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	h.metrics.Connections.Dec()
}

// ConnectionCount returns the number of open connections of a user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Shutdown closes every connection and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.shutdown = true
	for _, set := range h.clients {
		for c := range set {
			c.Close()
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
	h.metrics.Connections.Store(0)
}

// Client is one websocket connection.
type Client struct {
	UserID   string
	ctx      context.Context
	cancel   context.CancelFunc
	conn     *websocket.Conn
	send     chan []byte
	mu       sync.RWMutex
	isClosed bool
	metrics  *Metrics
}

func NewClient(ctx context.Context, conn *websocket.Conn, userID string) *Client {
	ctx, cancel := context.WithCancel(ctx)

	return &Client{
		UserID:  userID,
		ctx:     ctx,
		cancel:  cancel,
		conn:    conn,
		send:    make(chan []byte, maxSendChannelSize),
		metrics: &Metrics{},
	}
}

// Context is cancelled when the connection closes.
func (c *Client) Context() context.Context { return c.ctx }

// ReadPump reads messages from the browser until the connection closes.
func (c *Client) ReadPump(handleIncoming func(*Client, InEvent)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var ev InEvent
			if err := c.conn.ReadJSON(&ev); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure) {
					slog.Warn("search client read error", "user_id", c.UserID, "error", err)
				}
				return
			}

			c.metrics.MessagesReceived.Inc()
			handleIncoming(c, ev)
		}
	}
}

// WritePump writes queued messages and keeps the connection alive with pings.
func (c *Client) WritePump() error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return nil
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return nil
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return err
			}
			c.metrics.MessagesSent.Inc()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func (c *Client) SendJSON(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("search client marshal error", "error", err)
		return false
	}

	return c.SendRaw(data)
}

// SendRaw queues data without blocking. It reports false when the
// connection is closed or its queue is full.
func (c *Client) SendRaw(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.isClosed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		c.metrics.Dropped.Inc()
		return false
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosed {
		return
	}

	c.isClosed = true
	c.cancel()
	close(c.send)
	c.conn.Close()
}

func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isClosed
}
