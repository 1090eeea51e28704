package deposit

import (
	"langarchive/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers deposit routes under the protected group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	d := r.Group("/deposits")
	{
		d.POST("", h.Create)
		d.GET("/mine", h.ListMine)
		d.GET("/review", h.ListForReview)
		d.GET("/:id", h.Get)
		d.POST("/:id/transition", h.Transition)
		d.GET("/:id/events", h.ListEvents)

		d.GET("/:id/involved", h.ListInvolvedUsers)
		d.POST("/:id/involved", h.AddInvolvedUser)
		d.DELETE("/:id/involved/:user_id", h.RemoveInvolvedUser)

		d.POST("/:id/files", h.UploadFile)
		d.GET("/:id/files", h.ListFiles)
		d.DELETE("/:id/files/:file_id", h.DeleteFile)

		d.POST("/bulk-state", middleware.AdminOnly(), h.BulkSetState)
	}
}
