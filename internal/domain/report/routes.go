package report

import "github.com/gin-gonic/gin"

// RegisterRoutes registers report routes; the caller wraps the group with
// auth + reviewer/admin role middleware.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	reports := r.Group("/reports")
	{
		reports.GET("/deposits/by-state", h.DepositCounts)
		reports.GET("/activity", h.Timeline)
		reports.GET("/users/:user_id", h.UserActivity)
	}
}
