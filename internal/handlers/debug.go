package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/telemetry"
	"social-service/internal/ws"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, hub *ws.Hub, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/online", func(c *gin.Context) {
		if hub == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime hub not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"online": hub.OnlineUsers()})
	})

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), "INFO", "audit test", requestIDFromContext(c), userIDFromContext(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
