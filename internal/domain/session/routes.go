package session

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the session lifecycle endpoints.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	sessions := r.Group("/sessions")
	{
		sessions.POST("", h.Create)
		sessions.GET("/:sessionId", h.Info)
		sessions.POST("/:sessionId/verify", h.Verify)
		sessions.GET("/:sessionId/files", h.ListFiles)
		sessions.DELETE("/:sessionId", h.Close)
	}
}
