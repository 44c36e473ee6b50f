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

// UserHandler manages the follow graph endpoints.
type UserHandler struct {
	userRepo repositories.UserRepository
	notifier *notify.Notifier
	audit    *telemetry.AuditEmitter
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(userRepo repositories.UserRepository, notifier *notify.Notifier, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{userRepo: userRepo, notifier: notifier, audit: audit}
}

// FollowUser toggles the follow edge towards the target user. A new follow
// notifies the target; an unfollow fans out nothing.
func (h *UserHandler) FollowUser(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	follower, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	if follower.ID == targetID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot follow yourself"})
		return
	}

	if _, err := h.userRepo.GetUser(c.Request.Context(), targetID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	following, err := h.userRepo.IsFollowing(c.Request.Context(), follower.ID, targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check follow state"})
		return
	}

	if following {
		if err := h.userRepo.Unfollow(c.Request.Context(), follower.ID, targetID); err != nil {
			h.emitAudit(c, "ERROR", "failed to unfollow")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not unfollow"})
			return
		}
		h.emitAudit(c, "INFO", "user unfollowed")
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "unfollowed successfully", "action": "unfollow"})
		return
	}

	if err := h.userRepo.Follow(c.Request.Context(), follower.ID, targetID); err != nil {
		h.emitAudit(c, "ERROR", "failed to follow")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not follow"})
		return
	}

	h.notifier.UserFollowed(follower, targetID)
	h.emitAudit(c, "INFO", "user followed")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "followed successfully", "action": "follow"})
}

func (h *UserHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
