package catalog

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes registers the read-only catalog surface.
func RegisterPublicRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/languoids", h.ListLanguoids)
	r.GET("/languoids/map", h.MapLanguoids)
	r.GET("/languoids/:id", h.GetLanguoid)

	r.GET("/collections", h.ListCollections)
	r.GET("/collections/:id", h.GetCollection)
	r.GET("/collections/:id/items", h.ListCollectionItems)

	r.GET("/items", h.ListItems)
	r.GET("/items/:id", h.GetItem)
	r.GET("/items/:id/collaborators", h.ListItemCollaborators)

	r.GET("/collaborators", h.ListCollaborators)
	r.GET("/collaborators/:id", h.GetCollaborator)
}

// RegisterAdminRoutes registers catalog writes; the caller wraps the group
// with auth + admin-role middleware.
func RegisterAdminRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/languoids", h.CreateLanguoid)
	r.PUT("/languoids/:id", h.UpdateLanguoid)
	r.DELETE("/languoids/:id", h.DeleteLanguoid)

	r.POST("/collections", h.CreateCollection)
	r.PUT("/collections/:id", h.UpdateCollection)
	r.DELETE("/collections/:id", h.DeleteCollection)

	r.POST("/items", h.CreateItem)
	r.PUT("/items/:id", h.UpdateItem)
	r.DELETE("/items/:id", h.DeleteItem)
	r.POST("/items/:id/collaborators", h.AddItemCollaborator)
	r.DELETE("/items/:id/collaborators/:collaborator_id", h.RemoveItemCollaborator)

	r.POST("/collaborators", h.CreateCollaborator)
	r.PUT("/collaborators/:id", h.UpdateCollaborator)
	r.DELETE("/collaborators/:id", h.DeleteCollaborator)
}
