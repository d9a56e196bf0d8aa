package course

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
	courses := protected.Group("/courses", middleware.RequireStudio())
	{
		courses.GET("", h.List)
		courses.GET("/:id", h.Get)
		courses.POST("", middleware.AdminOnly(), h.Create)
		courses.PUT("/:id", middleware.AdminOnly(), h.Update)
		courses.DELETE("/:id", middleware.AdminOnly(), h.Delete)
	}
}

func (h *Handler) List(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	q := ListQuery{ActiveOnly: caller.IsStudent()}

	if raw := c.Query("instructor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid instructor_id")
			return
		}
		q.InstructorID = id
	}
	if raw := c.Query("day_of_week"); raw != "" {
		day, err := strconv.Atoi(raw)
		if err != nil || !validDay(day) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", ErrInvalidDay.Error())
			return
		}
		q.DayOfWeek = &day
	}
	if c.Query("mine") == "true" && caller.IsInstructor() {
		q.InstructorID = caller.UserID
	}
	if c.Query("active") == "true" {
		q.ActiveOnly = true
	}

	classes, err := h.service.List(c.Request.Context(), caller.Studio(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, classes)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	class, err := h.service.Get(c.Request.Context(), middleware.CallerFrom(c).Studio(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, class)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	class, err := h.service.Create(c.Request.Context(), middleware.CallerFrom(c).Studio(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, class)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	class, err := h.service.Update(c.Request.Context(), middleware.CallerFrom(c).Studio(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, class)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.service.Delete(c.Request.Context(), middleware.CallerFrom(c).Studio(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid course ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Course not found")
	case errors.Is(err, ErrCapacityBelowSeats):
		response.Error(c, http.StatusBadRequest, "CAPACITY_BELOW_ENROLLMENT", err.Error())
	case errors.Is(err, ErrInvalidSchedule),
		errors.Is(err, ErrInvalidDay),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrInvalidCapacity),
		errors.Is(err, ErrInvalidInstructor),
		errors.Is(err, ErrRoomNotFound):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		h.log.Error("course request failed", zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process request")
	}
}
