package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"mediamerge/internal/infrastructure"
)

// Event types sent to session subscribers.
const (
	TypeConnection    = "connection"
	TypeProgress      = "progress"
	TypeBatchComplete = "batch:complete"
	TypeBenchmark     = "benchmark:updated"
	TypeSessionClosed = "session:closed"
)

const broadcastBuffer = 256

// Event is the JSON envelope written to every subscriber.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data,omitempty"`
	TraceID   string      `json:"trace_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type envelope struct {
	sessionID string
	payload   []byte
	// disconnect drops the session's clients once payload is queued.
	disconnect bool
}

// Hub fans session events out to the WebSocket clients subscribed to that
// session.
type Hub struct {
	// session id -> clients
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex

	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	logger *slog.Logger
}

// NewHub creates a hub. Call Run to start delivering events.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		broadcast:  make(chan envelope, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket_hub")),
	}
}

// Run delivers events until ctx is cancelled. All clients are closed on exit.
func (h *Hub) Run(ctx context.Context) error {
	h.logger.InfoContext(ctx, "websocket hub started")
	defer h.stop(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.sessionID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.sessionID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()

			h.logger.InfoContext(ctx, "client subscribed",
				slog.String("client_id", client.id),
				slog.String("session_id", client.sessionID),
				slog.String("remote_addr", client.remoteAddr))

			if msg, err := encodeEvent(ctx, client.sessionID, TypeConnection, map[string]string{
				"client_id": client.id,
				"status":    "connected",
			}); err == nil {
				h.deliver(ctx, client, msg)
			}

		case client := <-h.unregister:
			h.remove(ctx, client)

		case env := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*Client, 0, len(h.clients[env.sessionID]))
			for c := range h.clients[env.sessionID] {
				targets = append(targets, c)
			}
			h.mu.RUnlock()

			for _, c := range targets {
				h.deliver(ctx, c, env.payload)
			}
			if env.disconnect {
				for _, c := range targets {
					h.remove(ctx, c)
				}
			}
		}
	}
}

// deliver queues msg without blocking. A client whose buffer is full is
// considered stalled and dropped.
func (h *Hub) deliver(ctx context.Context, c *Client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.logger.WarnContext(ctx, "dropping slow client",
			slog.String("client_id", c.id),
			slog.String("session_id", c.sessionID))
		h.remove(ctx, c)
	}
}

func (h *Hub) remove(ctx context.Context, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.sessionID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.sessionID)
	}
	close(c.send)

	h.logger.InfoContext(ctx, "client unsubscribed",
		slog.String("client_id", c.id),
		slog.String("session_id", c.sessionID),
		slog.Duration("connected_for", time.Since(c.connectedAt)))
}

func (h *Hub) stop(ctx context.Context) {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		for id, set := range h.clients {
			for c := range set {
				close(c.send)
			}
			delete(h.clients, id)
		}
		h.mu.Unlock()

		h.logger.InfoContext(ctx, "websocket hub stopped")
	})
}

// Publish sends an event to every subscriber of sessionID. It blocks only
// while the hub's queue is full, and gives up once ctx is done or the hub
// has stopped.
func (h *Hub) Publish(ctx context.Context, sessionID, eventType string, data interface{}) {
	h.enqueue(ctx, sessionID, eventType, data, false)
}

// CloseSession tells subscribers the session is gone and disconnects them.
func (h *Hub) CloseSession(ctx context.Context, sessionID string) {
	h.enqueue(ctx, sessionID, TypeSessionClosed, nil, true)
}

func (h *Hub) enqueue(ctx context.Context, sessionID, eventType string, data interface{}, disconnect bool) {
	msg, err := encodeEvent(ctx, sessionID, eventType, data)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode event",
			slog.String("type", eventType),
			slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- envelope{sessionID: sessionID, payload: msg, disconnect: disconnect}:
	case <-h.done:
	case <-ctx.Done():
		h.logger.DebugContext(ctx, "event dropped, context done", slog.String("type", eventType))
	}
}

// Subscribers returns the number of clients attached to sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// ClientCount returns the number of connected clients across all sessions.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func encodeEvent(ctx context.Context, sessionID, eventType string, data interface{}) ([]byte, error) {
	return json.Marshal(Event{
		Type:      eventType,
		SessionID: sessionID,
		Data:      data,
		TraceID:   infrastructure.GetTraceID(ctx),
		Timestamp: time.Now().UTC(),
	})
}
