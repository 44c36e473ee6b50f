package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-service/internal/notify"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
)

// PostHandler manages posts, likes and comments.
type PostHandler struct {
	postRepo repositories.PostRepository
	notifier *notify.Notifier
	audit    *telemetry.AuditEmitter
}

// NewPostHandler builds a PostHandler.
func NewPostHandler(postRepo repositories.PostRepository, notifier *notify.Notifier, audit *telemetry.AuditEmitter) *PostHandler {
	return &PostHandler{postRepo: postRepo, notifier: notifier, audit: audit}
}

// CreatePost handles POST /posts.
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Caption  string `json:"caption"`
		ImageURL string `json:"image_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.postRepo.CreatePost(c.Request.Context(), userID, req.Caption, req.ImageURL)
	if err != nil {
		h.emitAudit(c, "ERROR", "failed to create post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create post"})
		return
	}

	h.emitAudit(c, "INFO", "post created")
	c.JSON(http.StatusCreated, gin.H{"success": true, "post": post})
}

// ListPosts returns the feed.
func (h *PostHandler) ListPosts(c *gin.Context) {
	posts, err := h.postRepo.ListPosts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load posts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "posts": posts})
}

// LikePost records a like, then best-effort notifies the author and broadcasts
// the new count. A failed like aborts before any fan-out.
func (h *PostHandler) LikePost(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}
	user, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	post, err := h.postRepo.GetPost(c.Request.Context(), postID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrPostNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "post not found"})
		return
	}

	newlyLiked, err := h.postRepo.LikePost(c.Request.Context(), postID, user.ID)
	if err != nil {
		h.emitAudit(c, "ERROR", "failed to like post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not like post"})
		return
	}

	if counts, err := h.postRepo.GetCounts(c.Request.Context(), postID); err != nil {
		log.Printf("like fan-out skipped, counts lookup failed: %v", err)
	} else {
		h.notifier.PostLiked(post, user, counts.Likes, newlyLiked)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "post liked"})
}

// DislikePost removes a like and broadcasts the reduced count.
func (h *PostHandler) DislikePost(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}
	user, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	post, err := h.postRepo.GetPost(c.Request.Context(), postID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrPostNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "post not found"})
		return
	}

	if err := h.postRepo.UnlikePost(c.Request.Context(), postID, user.ID); err != nil {
		h.emitAudit(c, "ERROR", "failed to dislike post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not dislike post"})
		return
	}

	if counts, err := h.postRepo.GetCounts(c.Request.Context(), postID); err != nil {
		log.Printf("dislike fan-out skipped, counts lookup failed: %v", err)
	} else {
		h.notifier.PostDisliked(post, counts.Likes)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "post disliked"})
}

// AddComment stores a comment, then best-effort notifies the author and
// broadcasts the new comment count.
func (h *PostHandler) AddComment(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}
	user, ok := userFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.postRepo.GetPost(c.Request.Context(), postID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrPostNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "post not found"})
		return
	}

	comment, err := h.postRepo.AddComment(c.Request.Context(), postID, user.ID, req.Text)
	if err != nil {
		h.emitAudit(c, "ERROR", "failed to add comment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add comment"})
		return
	}

	if counts, err := h.postRepo.GetCounts(c.Request.Context(), postID); err != nil {
		log.Printf("comment fan-out skipped, counts lookup failed: %v", err)
	} else {
		h.notifier.CommentAdded(post, user, counts.Comments)
	}
	h.emitAudit(c, "INFO", "comment added")
	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": comment})
}

// GetComments returns a post's comments.
func (h *PostHandler) GetComments(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}
	comments, err := h.postRepo.ListComments(c.Request.Context(), postID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load comments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "comments": comments})
}

func parsePostID(c *gin.Context) (int, bool) {
	postID, err := strconv.Atoi(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return 0, false
	}
	return postID, true
}

func (h *PostHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
