package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studiohub/internal/middleware"
	"studiohub/internal/pkg/response"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/dashboard", middleware.RequireStudio(), h.Get)
}

func (h *Handler) Get(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	d, err := h.service.Get(c.Request.Context(), caller.Studio(), caller.UserID, caller.Role)
	if err != nil {
		h.log.Error("dashboard request failed", zap.Int64("user_id", caller.UserID), zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load dashboard")
		return
	}
	response.Success(c, http.StatusOK, d)
}
