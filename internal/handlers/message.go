package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-service/internal/notify"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
)

// MessageHandler manages the persisted direct-message endpoints.
type MessageHandler struct {
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
	notifier    *notify.Notifier
	audit       *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messageRepo repositories.MessageRepository, userRepo repositories.UserRepository, notifier *notify.Notifier, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		audit:       audit,
	}
}

// SendMessage persists a direct message and then announces it to the
// conversation room. The response reflects only the persistence outcome.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	receiverID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	sender, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	if sender.ID == receiverID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
		return
	}

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.userRepo.GetUser(c.Request.Context(), receiverID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "receiver not found"})
		return
	}

	conv, err := h.messageRepo.GetOrCreateConversation(c.Request.Context(), sender.ID, receiverID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open conversation"})
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), conv.ID, sender.ID, receiverID, req.Message)
	if err != nil {
		h.emitAudit(c, "ERROR", "failed to store message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.notifier.MessageCreated(conv, msg, sender)
	h.emitAudit(c, "INFO", "message sent")
	c.JSON(http.StatusCreated, gin.H{"success": true, "newMessage": msg, "conversationId": conv.ID})
}

// GetMessages returns the conversation history with the given user. A missing
// conversation is an empty history, not an error.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	otherID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	userID := c.GetInt("userID")

	conv, err := h.messageRepo.FindConversation(c.Request.Context(), userID, otherID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			c.JSON(http.StatusOK, gin.H{"success": true, "messages": []any{}, "conversationId": nil})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}

	msgs, err := h.messageRepo.ListConversationMessages(c.Request.Context(), conv.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "messages": msgs, "conversationId": conv.ID})
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
