package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the public auth endpoints. /auth/me is registered
// separately under the protected group by the caller.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	a := r.Group("/auth")
	{
		a.POST("/register", h.Register)
		a.POST("/login", h.Login)
	}
}

// RegisterProtectedRoutes registers auth endpoints that require a token.
func RegisterProtectedRoutes(r *gin.RouterGroup, h *Handler) {
	a := r.Group("/auth")
	{
		a.GET("/me", h.Me)
	}
}
