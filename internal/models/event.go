package models

import (
	"encoding/json"
	"time"
)

// Realtime event names sent to clients.
const (
	EventOnlineUsers     = "onlineUsers"
	EventUserOnline      = "userOnline"
	EventUserOffline     = "userOffline"
	EventNewMessage      = "newMessage"
	EventNewNotification = "newNotification"
	EventPostUpdate      = "postUpdate"
	EventUserTyping      = "userTyping"
	EventMessageError    = "messageError"
)

// Client event names received over the socket.
const (
	ClientJoinRoom         = "joinRoom"
	ClientLeaveRoom        = "leaveRoom"
	ClientTyping           = "typing"
	ClientSendMessage      = "sendMessage"
	ClientSendNotification = "sendNotification"
)

// Notification sub-types.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
)

// Envelope wraps every server-to-client event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ClientEvent is the inbound frame; Data is decoded per event name.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OnlineUser is one entry of the onlineUsers snapshot.
type OnlineUser struct {
	SocketID string  `json:"socketId"`
	UserID   string  `json:"userId"`
	User     Profile `json:"user"`
}

// PresencePayload announces userOnline / userOffline.
type PresencePayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

// MessagePayload is the newMessage shape.
type MessagePayload struct {
	ID             string    `json:"_id,omitempty"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Message        string    `json:"message"`
	ConversationID string    `json:"conversationId"`
	Sender         Profile   `json:"sender"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NotificationPayload is the newNotification shape (like, comment, follow).
type NotificationPayload struct {
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	PostID     string    `json:"postId,omitempty"`
	Sender     Profile   `json:"sender"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PostUpdatePayload is the postUpdate shape broadcast to every connection.
type PostUpdatePayload struct {
	PostID   string `json:"postId"`
	Likes    *int   `json:"likes,omitempty"`
	Comments *int   `json:"comments,omitempty"`
	Type     string `json:"type"`
}

// TypingPayload is the userTyping shape.
type TypingPayload struct {
	SenderID string `json:"senderId"`
	IsTyping bool   `json:"isTyping"`
	Username string `json:"username"`
}

// ErrorPayload is the messageError shape, sent to the offending connection only.
type ErrorPayload struct {
	Error string `json:"error"`
}

// TypingRequest is the inbound typing payload.
type TypingRequest struct {
	ReceiverID string `json:"receiverId"`
	IsTyping   bool   `json:"isTyping"`
}

// SendMessageRequest is the inbound ephemeral sendMessage payload.
type SendMessageRequest struct {
	ReceiverID     string `json:"receiverId"`
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
}

// SendNotificationRequest is the inbound ephemeral sendNotification payload.
type SendNotificationRequest struct {
	ReceiverID string `json:"receiverId"`
	Type       string `json:"type"`
	Message    string `json:"message"`
	PostID     string `json:"postId"`
}
