package report

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"langarchive/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) DepositCounts(c *gin.Context) {
	counts, err := h.service.DepositCountsByState(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to aggregate deposits")
		return
	}
	response.Success(c, http.StatusOK, counts)
}

func (h *Handler) Timeline(c *gin.Context) {
	bucket := Bucket(c.DefaultQuery("bucket", "day"))

	to := time.Now().UTC()
	from := to.AddDate(0, -1, 0)
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid from date")
			return
		}
		from = parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid to date")
			return
		}
		to = parsed
	}

	points, err := h.service.ActivityTimeline(c.Request.Context(), from, to, bucket)
	if err != nil {
		if errors.Is(err, ErrInvalidBucket) {
			response.Error(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to build timeline")
		return
	}
	response.Success(c, http.StatusOK, points)
}

func (h *Handler) UserActivity(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "invalid user id")
		return
	}

	activity, err := h.service.UserActivity(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to aggregate user activity")
		return
	}
	response.Success(c, http.StatusOK, activity)
}
