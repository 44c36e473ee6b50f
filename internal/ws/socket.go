package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"social-service/internal/auth"
	"social-service/internal/models"
	"social-service/internal/observability"
)

// SocketHandler upgrades realtime connections and drives the client event loop.
type SocketHandler struct {
	hub      *Hub
	verifier *auth.Verifier
	events   map[string]func(*session, json.RawMessage)
}

type session struct {
	conn *websocket.Conn
	user models.User
}

// NewSocketHandler constructs a SocketHandler with its client event dispatch table.
func NewSocketHandler(hub *Hub, verifier *auth.Verifier) *SocketHandler {
	h := &SocketHandler{hub: hub, verifier: verifier}
	h.events = map[string]func(*session, json.RawMessage){
		models.ClientJoinRoom:         h.handleJoinRoom,
		models.ClientLeaveRoom:        h.handleLeaveRoom,
		models.ClientTyping:           h.handleTyping,
		models.ClientSendMessage:      h.handleSendMessage,
		models.ClientSendNotification: h.handleSendNotification,
	}
	return h
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates the handshake, upgrades the connection and registers it.
// Authentication failures reject the attempt before the presence registry is touched.
func (h *SocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("social-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := auth.TokenFromRequest(c.Request)
	user, err := h.verifier.Authenticate(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication error"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      user.WireID(),
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.Register(user, conn, info)
	log.Printf("user connected: %s", info.UserID)

	observability.IncWSActive(wsKind)
	observability.IncWSEvent(wsKind, "ws_connect")
	_ = observability.PublishEvent(ctx, wsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   lifecyclePayload(info, "ws_connect", 0, ""),
	}, observability.BuildHeaders(requestID, traceID))

	go h.readLoop(ctx, &session{conn: conn, user: user}, info)
}

func (h *SocketHandler) readLoop(ctx context.Context, s *session, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.Unregister(s.conn)
		log.Printf("user disconnected: %s", info.UserID)
		observability.DecWSActive(wsKind)
		observability.IncWSEvent(wsKind, "ws_disconnect")
		_ = observability.PublishEvent(ctx, wsRoutingKey, observability.EventEnvelope{
			EventType: "ws_events",
			EventName: "ws_disconnect",
			Payload:   lifecyclePayload(info, "ws_disconnect", time.Since(info.ConnectedAt).Milliseconds(), closeReason),
		}, observability.BuildHeaders(info.RequestID, info.TraceID))
		s.conn.Close()
	}()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent(wsKind, "ws_error")
			}
			return
		}

		var evt models.ClientEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			h.hub.EmitToConn(s.conn, models.EventMessageError, models.ErrorPayload{Error: "malformed event"})
			continue
		}
		handler, ok := h.events[evt.Event]
		if !ok {
			h.hub.EmitToConn(s.conn, models.EventMessageError, models.ErrorPayload{Error: "unknown event: " + evt.Event})
			continue
		}
		handler(s, evt.Data)
	}
}

func (h *SocketHandler) handleJoinRoom(s *session, data json.RawMessage) {
	var room string
	if err := json.Unmarshal(data, &room); err != nil || room == "" {
		return
	}
	h.hub.Join(s.conn, room)
	log.Printf("user %s joined room %s", s.user.WireID(), room)
}

func (h *SocketHandler) handleLeaveRoom(s *session, data json.RawMessage) {
	var room string
	if err := json.Unmarshal(data, &room); err != nil || room == "" {
		return
	}
	h.hub.Leave(s.conn, room)
	log.Printf("user %s left room %s", s.user.WireID(), room)
}

// handleTyping relays the indicator to the conversation room without echoing
// it back to the sender.
func (h *SocketHandler) handleTyping(s *session, data json.RawMessage) {
	var req models.TypingRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ReceiverID == "" {
		return
	}
	room := PairwiseRoom(s.user.WireID(), req.ReceiverID)
	h.hub.EmitToRoomExcept(room, s.conn, models.EventUserTyping, models.TypingPayload{
		SenderID: s.user.WireID(),
		IsTyping: req.IsTyping,
		Username: s.user.Username,
	})
}

// handleSendMessage is the ephemeral relay path; the persisted path is the
// HTTP message endpoint.
func (h *SocketHandler) handleSendMessage(s *session, data json.RawMessage) {
	var req models.SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ReceiverID == "" {
		h.hub.EmitToConn(s.conn, models.EventMessageError, models.ErrorPayload{Error: "failed to send message"})
		return
	}
	room := PairwiseRoom(s.user.WireID(), req.ReceiverID)
	h.hub.EmitToRoom(room, models.EventNewMessage, models.MessagePayload{
		SenderID:       s.user.WireID(),
		ReceiverID:     req.ReceiverID,
		Message:        req.Message,
		ConversationID: req.ConversationID,
		Sender:         s.user.Profile(),
		CreatedAt:      time.Now().UTC(),
	})
}

// handleSendNotification delivers an ephemeral notification to the receiver's
// personal room; nothing is persisted on this path.
func (h *SocketHandler) handleSendNotification(s *session, data json.RawMessage) {
	var req models.SendNotificationRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ReceiverID == "" {
		return
	}
	h.hub.EmitToUser(req.ReceiverID, models.EventNewNotification, models.NotificationPayload{
		SenderID:   s.user.WireID(),
		ReceiverID: req.ReceiverID,
		Type:       req.Type,
		Message:    req.Message,
		PostID:     req.PostID,
		Sender:     s.user.Profile(),
		CreatedAt:  time.Now().UTC(),
	})
}

func lifecyclePayload(info ConnInfo, event string, durationMS int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        wsKind,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
