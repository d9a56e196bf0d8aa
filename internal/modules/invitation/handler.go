package invitation

import (
	"errors"
	"net/http"

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

func (h *Handler) RegisterPublicRoutes(api *gin.RouterGroup) {
	api.GET("/invitations/validate", h.Validate)
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	g := protected.Group("/invitations")
	{
		g.POST("", middleware.AdminOnly(), h.Create)
		g.POST("/accept", h.Accept)
	}
}

// Create issues an invitation link for a new admin or instructor.
// @Summary	Create invitation
// @Tags		Invitations
// @Security	BearerAuth
// @Router		/invitations [POST]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	res, err := h.service.Create(c.Request.Context(), middleware.CallerFrom(c).UserID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// Validate is public so the registration page can show who invited whom.
func (h *Handler) Validate(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.ValidationError(c, map[string]string{"token": "required"})
		return
	}

	info, err := h.service.Validate(c.Request.Context(), token)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"valid": true, "invitation": info})
}

func (h *Handler) Accept(c *gin.Context) {
	var req AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	res, err := h.service.Accept(c.Request.Context(), req.Token, middleware.CallerFrom(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvitationExpired):
		response.Error(c, http.StatusBadRequest, "INVITATION_EXPIRED", "Invitation has expired")
	case errors.Is(err, ErrInvalidInvitation):
		response.Error(c, http.StatusBadRequest, "INVALID_INVITATION", "Invitation is invalid")
	case errors.Is(err, ErrInvalidRole):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrStudioConflict):
		response.Error(c, http.StatusBadRequest, "STUDIO_CONFLICT", err.Error())
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrStudioMismatch):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
	default:
		h.log.Error("invitation request failed", zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process invitation")
	}
}
