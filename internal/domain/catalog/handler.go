package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"langarchive/internal/pkg/response"
	"langarchive/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ---- languoids ----

func (h *Handler) CreateLanguoid(c *gin.Context) {
	var req LanguoidRequest
	if !bindAndValidate(c, &req) {
		return
	}

	l := &Languoid{
		Code:      req.Code,
		Name:      req.Name,
		Level:     LanguoidLevel(req.Level),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := h.service.CreateLanguoid(c.Request.Context(), l); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, l)
}

func (h *Handler) GetLanguoid(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	l, err := h.service.GetLanguoid(c.Request.Context(), id)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, l)
}

func (h *Handler) UpdateLanguoid(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req LanguoidRequest
	if !bindAndValidate(c, &req) {
		return
	}

	l := &Languoid{
		ID:        id,
		Code:      req.Code,
		Name:      req.Name,
		Level:     LanguoidLevel(req.Level),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := h.service.UpdateLanguoid(c.Request.Context(), l); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, l)
}

func (h *Handler) DeleteLanguoid(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteLanguoid(c.Request.Context(), id); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) ListLanguoids(c *gin.Context) {
	f := LanguoidFilter{
		Level:      LanguoidLevel(c.Query("level")),
		NamePrefix: c.Query("name"),
	}
	list, err := h.service.ListLanguoids(c.Request.Context(), f)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

func (h *Handler) MapLanguoids(c *gin.Context) {
	box := BoundingBox{}
	var err error
	if box.MinLat, err = strconv.ParseFloat(c.DefaultQuery("min_lat", "-90"), 64); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid min_lat")
		return
	}
	if box.MaxLat, err = strconv.ParseFloat(c.DefaultQuery("max_lat", "90"), 64); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid max_lat")
		return
	}
	if box.MinLon, err = strconv.ParseFloat(c.DefaultQuery("min_lon", "-180"), 64); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid min_lon")
		return
	}
	if box.MaxLon, err = strconv.ParseFloat(c.DefaultQuery("max_lon", "180"), 64); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid max_lon")
		return
	}
	zoom, err := strconv.Atoi(c.DefaultQuery("zoom", "6"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid zoom")
		return
	}

	list, err := h.service.MapLanguoids(c.Request.Context(), box, zoom)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

// ---- collections ----

func (h *Handler) CreateCollection(c *gin.Context) {
	var req CollectionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	col := &Collection{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		CuratorID:   req.CuratorID,
	}
	if err := h.service.CreateCollection(c.Request.Context(), col); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, col)
}

func (h *Handler) GetCollection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	col, err := h.service.GetCollection(c.Request.Context(), id)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, col)
}

func (h *Handler) UpdateCollection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req CollectionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	col := &Collection{
		ID:          id,
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		CuratorID:   req.CuratorID,
	}
	if err := h.service.UpdateCollection(c.Request.Context(), col); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, col)
}

func (h *Handler) DeleteCollection(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteCollection(c.Request.Context(), id); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) ListCollections(c *gin.Context) {
	list, err := h.service.ListCollections(c.Request.Context())
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

func (h *Handler) ListCollectionItems(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	items, err := h.service.ListItems(c.Request.Context(), ItemFilter{CollectionID: &id})
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// ---- items ----

func (h *Handler) CreateItem(c *gin.Context) {
	var req ItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	it := &Item{
		Ident:        req.Ident,
		Title:        req.Title,
		Description:  req.Description,
		CollectionID: req.CollectionID,
	}
	if err := h.service.CreateItem(c.Request.Context(), it); err != nil {
		writeCatalogError(c, err)
		return
	}
	if len(req.LanguoidIDs) > 0 {
		if err := h.service.SetItemLanguoids(c.Request.Context(), it.ID, req.LanguoidIDs); err != nil {
			writeCatalogError(c, err)
			return
		}
	}
	response.Success(c, http.StatusCreated, it)
}

func (h *Handler) GetItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	it, err := h.service.GetItem(c.Request.Context(), id)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, it)
}

func (h *Handler) UpdateItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req ItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	it := &Item{
		ID:           id,
		Ident:        req.Ident,
		Title:        req.Title,
		Description:  req.Description,
		CollectionID: req.CollectionID,
	}
	if err := h.service.UpdateItem(c.Request.Context(), it); err != nil {
		writeCatalogError(c, err)
		return
	}
	if req.LanguoidIDs != nil {
		if err := h.service.SetItemLanguoids(c.Request.Context(), id, req.LanguoidIDs); err != nil {
			writeCatalogError(c, err)
			return
		}
	}
	response.Success(c, http.StatusOK, it)
}

func (h *Handler) DeleteItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteItem(c.Request.Context(), id); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) ListItems(c *gin.Context) {
	f := ItemFilter{TitleQuery: c.Query("q")}
	if v := c.Query("collection_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid collection_id")
			return
		}
		f.CollectionID = &id
	}
	if v := c.Query("languoid_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid languoid_id")
			return
		}
		f.LanguoidID = &id
	}
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.service.ListItems(c.Request.Context(), f)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

func (h *Handler) AddItemCollaborator(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req ItemCollaboratorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.service.SetItemCollaborator(c.Request.Context(), id, req.CollaboratorID, req.Role); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"item_id": id, "collaborator_id": req.CollaboratorID, "role": req.Role})
}

func (h *Handler) RemoveItemCollaborator(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	collabID, err := strconv.ParseInt(c.Param("collaborator_id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid collaborator id")
		return
	}
	role := c.Query("role")
	if err := h.service.RemoveItemCollaborator(c.Request.Context(), id, collabID, role); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": collabID})
}

func (h *Handler) ListItemCollaborators(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	links, err := h.service.ListItemCollaborators(c.Request.Context(), id)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, links)
}

// ---- collaborators ----

func (h *Handler) CreateCollaborator(c *gin.Context) {
	var req CollaboratorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	col := &Collaborator{Name: req.Name, Email: req.Email, Anonymous: req.Anonymous}
	if err := h.service.CreateCollaborator(c.Request.Context(), col); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, col)
}

func (h *Handler) GetCollaborator(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	col, err := h.service.GetCollaborator(c.Request.Context(), id)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, col)
}

func (h *Handler) UpdateCollaborator(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req CollaboratorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	col := &Collaborator{ID: id, Name: req.Name, Email: req.Email, Anonymous: req.Anonymous}
	if err := h.service.UpdateCollaborator(c.Request.Context(), col); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, col)
}

func (h *Handler) DeleteCollaborator(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteCollaborator(c.Request.Context(), id); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) ListCollaborators(c *gin.Context) {
	list, err := h.service.ListCollaborators(c.Request.Context())
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

// ---- helpers ----

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid id")
		return 0, false
	}
	return id, true
}

func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return false
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", fields)
		return false
	}
	return true
}

func writeCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrLanguoidNotFound),
		errors.Is(err, ErrCollectionNotFound),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrCollaboratorNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrIdentTaken):
		response.Error(c, http.StatusConflict, "IDENT_TAKEN", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidBoundingBox):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "catalog operation failed")
	}
}
