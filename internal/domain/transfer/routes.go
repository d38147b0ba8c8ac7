package transfer

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts upload and download under the session tree.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	sessions := r.Group("/sessions")
	{
		sessions.POST("/:sessionId/files", h.Upload)
		sessions.GET("/:sessionId/files/:fileId/download", h.Download)
	}
}
