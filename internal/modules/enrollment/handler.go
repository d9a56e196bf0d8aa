package enrollment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studiohub/internal/domain"
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
	enrollments := protected.Group("/enrollments", middleware.RequireStudio())
	{
		enrollments.GET("", h.List)
		enrollments.GET("/:id", h.Get)
		enrollments.POST("", middleware.AdminOnly(), h.Enroll)
		enrollments.POST("/checkout", middleware.RequireRole(domain.RoleStudent, domain.RoleAdmin), h.Checkout)
		enrollments.PATCH("/:id/status", middleware.StaffOnly(), h.UpdateStatus)
		enrollments.PATCH("/:id/payment-status", middleware.AdminOnly(), h.UpdatePaymentStatus)
		enrollments.POST("/:id/cancel", h.Cancel)
	}
}

func actorFrom(c *gin.Context) (int64, Actor) {
	caller := middleware.CallerFrom(c)
	return caller.Studio(), Actor{UserID: caller.UserID, Role: caller.Role}
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	var ok bool
	if q.ClassID, ok = queryID(c, "class_id"); !ok {
		return
	}
	if q.StudentID, ok = queryID(c, "student_id"); !ok {
		return
	}
	if raw := c.Query("status"); raw != "" {
		q.Status = domain.EnrollmentStatus(raw)
		if !q.Status.Valid() {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status")
			return
		}
	}

	studioID, actor := actorFrom(c)
	list, err := h.service.List(c.Request.Context(), studioID, actor, q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	studioID, actor := actorFrom(c)
	e, err := h.service.Get(c.Request.Context(), studioID, actor, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, e)
}

func (h *Handler) Enroll(c *gin.Context) {
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	res, err := h.service.Enroll(c.Request.Context(), middleware.CallerFrom(c).Studio(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	studioID, actor := actorFrom(c)
	res, err := h.service.Checkout(c.Request.Context(), studioID, actor, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	studioID, actor := actorFrom(c)
	e, err := h.service.UpdateStatus(c.Request.Context(), studioID, actor, id, req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, e)
}

func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	e, err := h.service.UpdatePaymentStatus(c.Request.Context(), middleware.CallerFrom(c).Studio(), id, req.PaymentStatus)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, e)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	studioID, actor := actorFrom(c)
	e, err := h.service.Cancel(c.Request.Context(), studioID, actor, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, e)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid enrollment ID")
		return 0, false
	}
	return id, true
}

func queryID(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid "+name)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Enrollment not found")
	case errors.Is(err, ErrClassNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Class not found")
	case errors.Is(err, ErrStudentNotFound):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrInvalidStatus):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrCapacityExceeded):
		response.Error(c, http.StatusBadRequest, "CAPACITY_EXCEEDED", "Class is full")
	case errors.Is(err, ErrDuplicateEnrollment):
		response.Error(c, http.StatusBadRequest, "DUPLICATE_ENROLLMENT", "Already enrolled in this class")
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", err.Error())
	case errors.Is(err, ErrClassInactive):
		response.Error(c, http.StatusBadRequest, "CLASS_INACTIVE", err.Error())
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrPaymentSetup):
		h.log.Error("checkout payment setup failed", zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusBadGateway, "PAYMENT_SETUP_FAILED", "Payment could not be started, enrollment was released")
	default:
		h.log.Error("enrollment request failed", zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process request")
	}
}
