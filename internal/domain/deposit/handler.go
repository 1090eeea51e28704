package deposit

import (
	"errors"
	"net/http"
	"strconv"

	"langarchive/internal/domain"
	"langarchive/internal/middleware"
	"langarchive/internal/pkg/response"
	"langarchive/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo       Repository
	engine     *Engine
	files      *FileService
	draftLimit int
}

// NewHandler wires the deposit HTTP surface. draftLimit caps open drafts per
// user; zero disables the cap.
func NewHandler(repo Repository, engine *Engine, files *FileService, draftLimit int) *Handler {
	return &Handler{repo: repo, engine: engine, files: files, draftLimit: draftLimit}
}

func (h *Handler) Create(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	var req CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", fields)
		return
	}

	if h.draftLimit > 0 {
		open, err := h.repo.CountDraftsByOwner(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to create deposit")
			return
		}
		if open >= int64(h.draftLimit) {
			response.Error(c, http.StatusConflict, "DRAFT_LIMIT_REACHED", "too many open drafts, submit or delete existing ones first")
			return
		}
	}

	dep := &Deposit{
		Title:       req.Title,
		DraftUserID: userID,
		Metadata:    req.Metadata,
	}
	if err := h.repo.Create(c.Request.Context(), dep); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to create deposit")
		return
	}

	response.Success(c, http.StatusCreated, dep)
}

func (h *Handler) Get(c *gin.Context) {
	dep, ok := h.loadAccessible(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, dep)
}

func (h *Handler) ListMine(c *gin.Context) {
	userID := middleware.UserID(c)
	list, err := h.repo.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to list deposits")
		return
	}
	response.Success(c, http.StatusOK, list)
}

func (h *Handler) ListForReview(c *gin.Context) {
	userID := middleware.UserID(c)
	list, err := h.repo.ListForReviewer(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to list deposits")
		return
	}
	response.Success(c, http.StatusOK, list)
}

// Transition drives the workflow engine. observed_state lets the engine
// detect a lost race and answer 409 instead of silently re-validating.
func (h *Handler) Transition(c *gin.Context) {
	userID := middleware.UserID(c)
	role := middleware.Role(c)

	id, ok := depositID(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", fields)
		return
	}

	target, validTarget := ParseState(req.TargetState)
	observed, validObserved := ParseState(req.ObservedState)
	if !validTarget || !validObserved {
		response.Error(c, http.StatusBadRequest, "INVALID_TRANSITION", "unknown state")
		return
	}

	dep, err := h.engine.TransitionTo(c.Request.Context(), id, observed, target, userID, role, req.Comment)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}

	response.Success(c, http.StatusOK, dep)
}

func (h *Handler) ListEvents(c *gin.Context) {
	dep, ok := h.loadAccessible(c)
	if !ok {
		return
	}
	events, err := h.repo.ListEvents(c.Request.Context(), dep.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to list events")
		return
	}
	response.Success(c, http.StatusOK, events)
}

func (h *Handler) AddInvolvedUser(c *gin.Context) {
	dep, ok := h.loadOwned(c)
	if !ok {
		return
	}

	var req InvolvedUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", fields)
		return
	}

	if err := h.repo.AddInvolvedUser(c.Request.Context(), dep.ID, req.UserID); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to add involved user")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"deposit_id": dep.ID, "user_id": req.UserID})
}

func (h *Handler) RemoveInvolvedUser(c *gin.Context) {
	dep, ok := h.loadOwned(c)
	if !ok {
		return
	}
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid user id")
		return
	}
	if err := h.repo.RemoveInvolvedUser(c.Request.Context(), dep.ID, userID); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to remove involved user")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": userID})
}

func (h *Handler) ListInvolvedUsers(c *gin.Context) {
	dep, ok := h.loadAccessible(c)
	if !ok {
		return
	}
	ids, err := h.repo.InvolvedUserIDs(c.Request.Context(), dep.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to list involved users")
		return
	}
	response.Success(c, http.StatusOK, ids)
}

func (h *Handler) UploadFile(c *gin.Context) {
	userID := middleware.UserID(c)
	role := middleware.Role(c)

	id, ok := depositID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "no file provided")
		return
	}

	isMetadata := c.PostForm("is_metadata_file") == "true"
	itemIdent := c.PostForm("item_ident")

	f, err := h.files.Upload(c.Request.Context(), id, userID, role, fileHeader, isMetadata, itemIdent)
	if err != nil {
		switch {
		case errors.Is(err, ErrDepositNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		case errors.Is(err, ErrPermissionDenied):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
		case errors.Is(err, ErrDepositLocked):
			response.Error(c, http.StatusConflict, "DEPOSIT_LOCKED", err.Error())
		case errors.Is(err, ErrEmptyFile):
			response.Error(c, http.StatusBadRequest, "EMPTY_FILE", err.Error())
		case errors.Is(err, ErrFileTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL", "upload failed")
		}
		return
	}

	response.Success(c, http.StatusCreated, f)
}

func (h *Handler) ListFiles(c *gin.Context) {
	dep, ok := h.loadAccessible(c)
	if !ok {
		return
	}
	files, err := h.files.List(c.Request.Context(), dep.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to list files")
		return
	}
	response.Success(c, http.StatusOK, files)
}

func (h *Handler) DeleteFile(c *gin.Context) {
	userID := middleware.UserID(c)
	role := middleware.Role(c)

	id, ok := depositID(c)
	if !ok {
		return
	}
	fileID := c.Param("file_id")

	if err := h.files.Delete(c.Request.Context(), id, fileID, userID, role); err != nil {
		switch {
		case errors.Is(err, ErrDepositNotFound), errors.Is(err, ErrFileNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		case errors.Is(err, ErrPermissionDenied):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
		case errors.Is(err, ErrDepositLocked):
			response.Error(c, http.StatusConflict, "DEPOSIT_LOCKED", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL", "delete failed")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": fileID})
}

// BulkSetState is the admin repair endpoint, routed behind AdminOnly.
func (h *Handler) BulkSetState(c *gin.Context) {
	var req BulkStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", fields)
		return
	}

	target, valid := ParseState(req.TargetState)
	if !valid {
		response.Error(c, http.StatusBadRequest, "INVALID_TRANSITION", "unknown state")
		return
	}

	updated, err := h.engine.BulkSetState(c.Request.Context(), req.DepositIDs, target, req.EmitNotifications)
	if err != nil {
		writeWorkflowError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": updated})
}

// ---- helpers ----

func depositID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid deposit id")
		return 0, false
	}
	return id, true
}

// loadAccessible loads the deposit and checks the caller is its owner, an
// involved user, or an admin.
func (h *Handler) loadAccessible(c *gin.Context) (*Deposit, bool) {
	userID := middleware.UserID(c)
	role := middleware.Role(c)

	id, ok := depositID(c)
	if !ok {
		return nil, false
	}

	dep, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "deposit not found")
		return nil, false
	}

	if role == string(domain.RoleAdmin) || dep.DraftUserID == userID {
		return dep, true
	}

	ids, err := h.repo.InvolvedUserIDs(c.Request.Context(), id)
	if err == nil {
		for _, uid := range ids {
			if uid == userID {
				return dep, true
			}
		}
	}

	response.Error(c, http.StatusForbidden, "FORBIDDEN", "you do not have access to this deposit")
	return nil, false
}

// loadOwned loads the deposit and checks the caller is its owner or admin.
func (h *Handler) loadOwned(c *gin.Context) (*Deposit, bool) {
	userID := middleware.UserID(c)
	role := middleware.Role(c)

	id, ok := depositID(c)
	if !ok {
		return nil, false
	}

	dep, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "deposit not found")
		return nil, false
	}

	if role != string(domain.RoleAdmin) && dep.DraftUserID != userID {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "you do not own this deposit")
		return nil, false
	}

	return dep, true
}

func writeWorkflowError(c *gin.Context, err error) {
	var precondition *PreconditionError
	switch {
	case errors.Is(err, ErrDepositNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusBadRequest, "INVALID_TRANSITION", err.Error())
	case errors.As(err, &precondition):
		response.Error(c, http.StatusBadRequest, "PRECONDITION_NOT_MET", precondition.Error())
	case errors.Is(err, ErrPermissionDenied):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ErrConcurrentModification):
		response.Error(c, http.StatusConflict, "CONCURRENT_MODIFICATION", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "transition failed")
	}
}
