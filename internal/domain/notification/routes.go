package notification

import "github.com/gin-gonic/gin"

// RegisterRoutes registers notification routes under the protected group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	n := r.Group("/notifications")
	{
		n.GET("", h.List)
		n.GET("/stream", h.Stream)
		n.POST("/:id/read", h.MarkRead)
		n.POST("/read-all", h.MarkAllRead)
	}
}
