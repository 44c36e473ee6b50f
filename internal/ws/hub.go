package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"social-service/internal/models"
	"social-service/internal/observability"
)

const wsKind = "social"

// writeWait bounds a single frame write so a stalled client cannot block the
// emitting goroutine.
const writeWait = 10 * time.Second

type client struct {
	conn  Conn
	user  models.User
	info  ConnInfo
	rooms map[string]bool

	// writeMu serializes frame writes; the websocket package allows only one
	// concurrent writer per connection.
	writeMu sync.Mutex
}

// write sends one frame under the client's write lock with a bounded deadline.
func (c *client) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub owns the presence registry, room membership tables and event fan-out.
// All maps are guarded by a single mutex; broadcast order within a room is the
// order Emit calls acquire it.
type Hub struct {
	mu       sync.RWMutex
	clients  map[Conn]*client
	presence map[string]*client
	rooms    map[string]map[*client]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:  make(map[Conn]*client),
		presence: make(map[string]*client),
		rooms:    make(map[string]map[*client]bool),
	}
}

// Register records a connection as the user's live session. A second session
// for the same user takes over the presence entry (last connection wins). The
// connection is joined to the user's personal room, every client is told the
// user is online, and the new connection alone receives the presence snapshot.
func (h *Hub) Register(user models.User, conn Conn, info ConnInfo) {
	userID := user.WireID()

	h.mu.Lock()
	c := &client{conn: conn, user: user, info: info, rooms: make(map[string]bool)}
	h.clients[conn] = c
	h.presence[userID] = c
	h.joinLocked(c, userID)
	snapshot := h.onlineUsersLocked()
	h.mu.Unlock()

	h.Broadcast(models.EventUserOnline, models.PresencePayload{UserID: userID, Username: user.Username})
	h.emitTo([]*client{c}, models.EventOnlineUsers, snapshot)
}

// Unregister removes a connection. If it still holds the user's presence entry
// the departure is broadcast, and rooms the connection sat in get a synthetic
// typing-stopped event so indicators do not stick. The personal room and the
// departing connection itself are excluded from the sweep.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	c, ok := h.clients[conn]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, conn)

	var sweep []string
	for room := range c.rooms {
		h.leaveLocked(c, room)
		if room != c.user.WireID() {
			sweep = append(sweep, room)
		}
	}

	wasPresent := h.presence[c.user.WireID()] == c
	if wasPresent {
		delete(h.presence, c.user.WireID())
	}
	h.mu.Unlock()

	if wasPresent {
		h.Broadcast(models.EventUserOffline, models.PresencePayload{UserID: c.user.WireID()})
	}
	for _, room := range sweep {
		h.EmitToRoom(room, models.EventUserTyping, models.TypingPayload{
			SenderID: c.user.WireID(),
			IsTyping: false,
			Username: c.user.Username,
		})
	}
}

// IsOnline reports whether the user currently holds a presence entry.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.presence[userID]
	return ok
}

// OnlineUsers returns a snapshot of connected users.
func (h *Hub) OnlineUsers() []models.OnlineUser {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onlineUsersLocked()
}

// Join adds a connection to a room. Unknown connections are ignored.
func (h *Hub) Join(conn Conn, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[conn]
	if !ok {
		return
	}
	h.joinLocked(c, room)
}

// Leave removes a connection from a room; leaving a room it never joined is a no-op.
func (h *Hub) Leave(conn Conn, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(c.rooms, room)
	h.leaveLocked(c, room)
}

// EmitToRoom delivers an event to every connection joined to the room.
func (h *Hub) EmitToRoom(room string, event string, data any) {
	h.mu.RLock()
	members := clientList(h.rooms[room])
	h.mu.RUnlock()
	h.emitTo(members, event, data)
}

// EmitToRoomExcept delivers to the room, skipping one connection (used for
// typing indicators, which must not echo to the sender).
func (h *Hub) EmitToRoomExcept(room string, except Conn, event string, data any) {
	h.mu.RLock()
	members := make([]*client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		if c.conn != except {
			members = append(members, c)
		}
	}
	h.mu.RUnlock()
	h.emitTo(members, event, data)
}

// EmitToUser delivers to the user's personal room. If the user is offline the
// event is dropped; delivery is fire-and-forget.
func (h *Hub) EmitToUser(userID string, event string, data any) {
	h.EmitToRoom(userID, event, data)
}

// EmitToConn delivers to a single connection.
func (h *Hub) EmitToConn(conn Conn, event string, data any) {
	h.mu.RLock()
	c, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.emitTo([]*client{c}, event, data)
}

// Broadcast delivers an event to every connected client.
func (h *Hub) Broadcast(event string, data any) {
	h.mu.RLock()
	members := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		members = append(members, c)
	}
	h.mu.RUnlock()
	h.emitTo(members, event, data)
}

func (h *Hub) joinLocked(c *client, room string) {
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*client]bool)
	}
	h.rooms[room][c] = true
	c.rooms[room] = true
}

func (h *Hub) leaveLocked(c *client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) onlineUsersLocked() []models.OnlineUser {
	users := make([]models.OnlineUser, 0, len(h.presence))
	for userID, c := range h.presence {
		users = append(users, models.OnlineUser{
			SocketID: c.info.ConnID,
			UserID:   userID,
			User:     c.user.Profile(),
		})
	}
	return users
}

// emitTo serializes the envelope once and writes it to each client in order.
// Clients that fail the write are closed and evicted.
func (h *Hub) emitTo(members []*client, event string, data any) {
	payload, err := json.Marshal(models.Envelope{Event: event, Data: data})
	if err != nil {
		log.Printf("ws marshal error for %s: %v", event, err)
		return
	}
	for _, c := range members {
		if err := c.write(payload); err != nil {
			log.Printf("websocket write error: %v", err)
			c.conn.Close()
			h.evict(c, err)
		}
	}
}

func (h *Hub) evict(c *client, cause error) {
	h.mu.Lock()
	registered := h.clients[c.conn] == c
	if registered {
		delete(h.clients, c.conn)
		for room := range c.rooms {
			h.leaveLocked(c, room)
		}
		if h.presence[c.user.WireID()] == c {
			delete(h.presence, c.user.WireID())
		}
	}
	h.mu.Unlock()
	if !registered {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        wsKind,
			"event":       "ws_error",
			"conn_id":     c.info.ConnID,
			"duration_ms": time.Since(c.info.ConnectedAt).Milliseconds(),
			"reason":      cause.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   c.info.UserID,
			"device_id": c.info.DeviceID,
			"ip":        c.info.IP,
		},
	}
	headers := observability.BuildHeaders(c.info.RequestID, c.info.TraceID)
	_ = observability.PublishEvent(context.Background(), wsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent(wsKind, "ws_error")
}

const wsRoutingKey = "ws_events.social"
