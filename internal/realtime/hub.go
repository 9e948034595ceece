// Package realtime pushes offer thread updates to websocket subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"maid-market/internal/events"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 5 * time.Second
	// sendBuffer is how many frames a subscriber may fall behind before it is dropped
	sendBuffer = 64
)

// Event is the frame sent to subscribers
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// client queues frames for one connection. Frames broadcast before the
// snapshot is queued are held back so the snapshot always goes first.
type client struct {
	conn *websocket.Conn
	send chan []byte

	mu      sync.Mutex
	started bool
	closed  bool
	pending [][]byte
}

func newClient(conn *websocket.Conn) *client {
	// one extra slot for the snapshot queued ahead of the backlog
	return &client{conn: conn, send: make(chan []byte, sendBuffer+1)}
}

// enqueue hands payload to the writer without blocking. It reports false
// when the subscriber is too far behind.
func (c *client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return true
	}
	if !c.started {
		if len(c.pending) >= sendBuffer {
			return false
		}
		c.pending = append(c.pending, payload)
		return true
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// start queues first, when non-nil, then releases frames held back so far
func (c *client) start(first []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	if first != nil {
		c.send <- first
	}
	for _, p := range c.pending {
		c.send <- p
	}
	c.pending = nil
	c.started = true
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writeLoop is the connection's only writer
func (c *client) writeLoop() {
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			// unblocks the read loop in Serve, which unregisters the client
			_ = c.conn.Close()
			return
		}
	}
}

// Hub tracks websocket subscribers per offer id. It implements
// events.Publisher so it can sit next to the broker publisher.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

var _ events.Publisher = (*Hub)(nil)

// NewHub creates a hub. allowedOrigins empty or containing "*" accepts any origin.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		rooms:  make(map[string]map[*client]struct{}),
		logger: logger.Named("realtime"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// Publish broadcasts offer.* events to the offer's subscribers. Other subjects are ignored.
func (h *Hub) Publish(ctx context.Context, subject string, payload any) error {
	if !strings.HasPrefix(subject, "offer.") {
		return nil
	}
	evt, ok := payload.(events.OfferEvent)
	if !ok || evt.Offer == nil {
		return nil
	}
	h.Broadcast(evt.Offer.ID, Event{Type: subject, Data: evt})
	return nil
}

// Broadcast queues evt for every subscriber of offerID. It never waits on a
// connection; subscribers that fall too far behind are dropped.
func (h *Hub) Broadcast(offerID string, evt Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("Failed to marshal realtime event", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[offerID]))
	for c := range h.rooms[offerID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(payload) {
			h.logger.Debug("Dropping slow websocket subscriber", zap.String("offer_id", offerID))
			h.unregister(offerID, c)
			c.close()
			_ = c.conn.Close()
		}
	}
}

// Subscribers returns the number of connections watching offerID
func (h *Hub) Subscribers(offerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[offerID])
}

func (h *Hub) register(offerID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[offerID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[offerID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) unregister(offerID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[offerID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, offerID)
	}
}

// Serve upgrades the request and subscribes the connection to offerID until
// the client disconnects. snapshot, when non-nil, is called after the
// subscription is in place and its result is sent before any broadcast.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, offerID string, snapshot func(context.Context) (any, error)) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := newClient(conn)
	h.register(offerID, c)
	go c.writeLoop()
	h.logger.Debug("Websocket subscriber joined", zap.String("offer_id", offerID))

	var first []byte
	if snapshot != nil {
		data, err := snapshot(r.Context())
		if err != nil {
			h.logger.Warn("Failed to load websocket snapshot", zap.String("offer_id", offerID), zap.Error(err))
		} else if first, err = json.Marshal(Event{Type: "offer.snapshot", Data: data}); err != nil {
			h.logger.Error("Failed to marshal websocket snapshot", zap.Error(err))
			first = nil
		}
	}
	c.start(first)

	// Server push only; reads just detect disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(offerID, c)
	c.close()
	_ = conn.Close()
	h.logger.Debug("Websocket subscriber left", zap.String("offer_id", offerID))
	return nil
}
