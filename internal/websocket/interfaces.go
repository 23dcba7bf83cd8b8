package websocket

import (
	"context"
	"time"
)

// Connection is the subset of *websocket.Conn the hub relies on. Tests swap in
// an in-memory implementation.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// Publisher is what the merge service needs from the hub.
type Publisher interface {
	Publish(ctx context.Context, sessionID, eventType string, data interface{})
	CloseSession(ctx context.Context, sessionID string)
}
