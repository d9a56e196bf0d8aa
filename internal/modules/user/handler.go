package user

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
	users := protected.Group("/users")
	{
		users.GET("/me", h.GetMe)
		users.PUT("/me", h.UpdateMe)
		users.GET("", middleware.RequireStudio(), middleware.AdminOnly(), h.List)
		users.PATCH("/:id/role", middleware.RequireStudio(), middleware.AdminOnly(), h.ChangeRole)
	}

	students := protected.Group("/students", middleware.RequireStudio(), middleware.StaffOnly())
	{
		students.GET("", h.ListStudents)
		students.GET("/:id", h.GetStudent)
	}

	protected.GET("/instructors", middleware.RequireStudio(), h.ListInstructors)
}

func (h *Handler) GetMe(c *gin.Context) {
	p, err := h.service.Me(c.Request.Context(), middleware.CallerFrom(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	u, err := h.service.UpdateMe(c.Request.Context(), middleware.CallerFrom(c).UserID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u)
}

func (h *Handler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context(), middleware.CallerFrom(c).Studio(), domain.UserRole(c.Query("role")))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

func (h *Handler) ChangeRole(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	caller := middleware.CallerFrom(c)
	res, err := h.service.ChangeRole(c.Request.Context(), caller.Studio(), caller.UserID, id, req.Role)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) ListStudents(c *gin.Context) {
	users, err := h.service.List(c.Request.Context(), middleware.CallerFrom(c).Studio(), domain.RoleStudent)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

func (h *Handler) GetStudent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid student ID")
		return
	}

	detail, err := h.service.Student(c.Request.Context(), middleware.CallerFrom(c).Studio(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

func (h *Handler) ListInstructors(c *gin.Context) {
	users, err := h.service.List(c.Request.Context(), middleware.CallerFrom(c).Studio(), domain.RoleInstructor)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
	case errors.Is(err, ErrInvalidRole):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid role")
	case errors.Is(err, ErrSelfDemotion):
		response.Error(c, http.StatusBadRequest, "SELF_ROLE_CHANGE", err.Error())
	default:
		h.log.Error("user request failed", zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process request")
	}
}
