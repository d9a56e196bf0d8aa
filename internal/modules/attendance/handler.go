package attendance

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studiohub/internal/middleware"
	"studiohub/internal/pkg/response"
	"studiohub/internal/pkg/validator"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	attendance := protected.Group("/attendance", middleware.RequireStudio())
	{
		attendance.GET("", h.List)
		attendance.POST("", middleware.StaffOnly(), h.Mark)
		attendance.GET("/summary/:class_id", middleware.StaffOnly(), h.Summary)
	}
}

func actorFrom(c *gin.Context) (int64, Actor) {
	caller := middleware.CallerFrom(c)
	return caller.Studio(), Actor{UserID: caller.UserID, Role: caller.Role}
}

func (h *Handler) Mark(c *gin.Context) {
	var req MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	studioID, actor := actorFrom(c)
	rows, err := h.service.Mark(c.Request.Context(), studioID, actor, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}

func (h *Handler) List(c *gin.Context) {
	q := ListQuery{SessionDate: c.Query("date")}
	for name, dst := range map[string]*int64{"class_id": &q.ClassID, "student_id": &q.StudentID} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid "+name)
			return
		}
		*dst = v
	}

	studioID, actor := actorFrom(c)
	rows, err := h.service.List(c.Request.Context(), studioID, actor, q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}

func (h *Handler) Summary(c *gin.Context) {
	classID, err := strconv.ParseInt(c.Param("class_id"), 10, 64)
	if err != nil || classID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid class ID")
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), middleware.CallerFrom(c).Studio(), classID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrClassNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Class not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrNoRecords):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrNotEnrolled):
		response.Error(c, http.StatusBadRequest, "NOT_ENROLLED", err.Error())
	default:
		h.log.Error("attendance request failed", zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process request")
	}
}
