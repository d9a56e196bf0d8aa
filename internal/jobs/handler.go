package jobs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studiohub/internal/pkg/response"
)

// Handler exposes an on-demand reconciliation run to operators.
type Handler struct {
	runner runner
	log    *zap.Logger
}

func NewHandler(r runner, log *zap.Logger) *Handler {
	return &Handler{runner: r, log: log}
}

func (h *Handler) RegisterRoutes(internal *gin.RouterGroup) {
	internal.POST("/jobs/reconcile", h.Reconcile)
}

func (h *Handler) Reconcile(c *gin.Context) {
	res, err := h.runner.RunOnce(c.Request.Context())
	if err != nil {
		h.log.Error("manual reconciliation failed", zap.Error(err))
		_ = c.Error(err)
		response.ErrorWithDetails(c, http.StatusInternalServerError, "RECONCILE_FAILED", "Reconciliation finished with errors", res)
		return
	}
	response.Success(c, http.StatusOK, res)
}
