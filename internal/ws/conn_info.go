package ws

import "time"

// Conn is the write side of a realtime connection. *websocket.Conn satisfies it;
// tests substitute their own.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// ConnInfo carries per-connection metadata for observability events.
type ConnInfo struct {
	ConnID      string
	UserID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
