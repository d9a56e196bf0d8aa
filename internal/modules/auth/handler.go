package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studiohub/internal/middleware"
	"studiohub/internal/pkg/response"
	"studiohub/internal/pkg/validator"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterPublicRoutes(api *gin.RouterGroup) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.POST("/auth/refresh", h.Refresh)
}

// Register creates a student account, optionally joining a studio or
// redeeming an invitation.
// @Summary	Register
// @Tags		Auth
// @Param		request	body	RegisterRequest	true	"email, password, full_name, phone, invite_token, studio_serial"
// @Success	201
// @Failure	400
// @Failure	409
// @Router		/auth/register [POST]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailAlreadyExists):
			response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
		case errors.Is(err, ErrStudioNotFound):
			response.Error(c, http.StatusNotFound, "STUDIO_NOT_FOUND", "No studio with this serial number")
		default:
			h.log.Error("registration failed", zap.Error(err))
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register")
		}
		return
	}

	response.Success(c, http.StatusCreated, res)
}

// Login
// @Summary	Login
// @Tags		Auth
// @Param		request	body	LoginRequest	true	"email, password"
// @Success	200
// @Failure	401
// @Router		/auth/login [POST]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
			return
		}
		h.log.Error("login failed", zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to login")
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Refresh reissues the access token from the current user record, picking
// up role or studio changes made since the last login.
func (h *Handler) Refresh(c *gin.Context) {
	res, err := h.service.IssueFor(c.Request.Context(), middleware.CallerFrom(c).UserID)
	if err != nil {
		h.log.Error("token refresh failed", zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "REFRESH_FAILED", "Failed to refresh token")
		return
	}
	response.Success(c, http.StatusOK, res)
}
