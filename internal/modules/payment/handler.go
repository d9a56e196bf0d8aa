package payment

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studiohub/internal/middleware"
	"studiohub/internal/pkg/response"
	"studiohub/internal/pkg/validator"
)

const maxWebhookBody = 1 << 16

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	payments := protected.Group("/payments", middleware.RequireStudio())
	{
		payments.GET("", h.List)
		payments.GET("/:id", h.Get)
		payments.POST("/create-intent", h.CreateIntent)
		payments.POST("/confirm", h.Confirm)
		payments.POST("/manual", middleware.AdminOnly(), h.RecordManual)
	}
}

// RegisterPublicRoutes mounts the processor webhook. It is authenticated by
// the signature header, not a bearer token.
func (h *Handler) RegisterPublicRoutes(public *gin.RouterGroup) {
	public.POST("/webhooks/stripe", h.Webhook)
}

func actorFrom(c *gin.Context) (int64, Actor) {
	caller := middleware.CallerFrom(c)
	return caller.Studio(), Actor{UserID: caller.UserID, Role: caller.Role}
}

// CreateIntent godoc
// @Summary      Start a card payment for an enrollment
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body CreateIntentRequest true "Enrollment to pay for"
// @Router       /payments/create-intent [post]
func (h *Handler) CreateIntent(c *gin.Context) {
	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	studioID, actor := actorFrom(c)
	res, err := h.service.CreateIntentForEnrollment(c.Request.Context(), studioID, actor, req.EnrollmentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// Confirm godoc
// @Summary      Confirm a card payment after the client-side flow
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body ConfirmRequest true "Payment intent"
// @Router       /payments/confirm [post]
func (h *Handler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	studioID, actor := actorFrom(c)
	p, err := h.service.ConfirmPayment(c.Request.Context(), studioID, actor, req.PaymentIntentID)
	if errors.Is(err, ErrPaymentNotSucceeded) && p != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "PAYMENT_NOT_SUCCEEDED", err.Error(), gin.H{"payment": p})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) RecordManual(c *gin.Context) {
	var req ManualPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return
	}

	p, err := h.service.RecordManualPayment(c.Request.Context(), middleware.CallerFrom(c).Studio(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, p)
}

func (h *Handler) List(c *gin.Context) {
	q := ListQuery{Status: c.Query("status")}
	for name, dst := range map[string]*int64{"student_id": &q.StudentID, "enrollment_id": &q.EnrollmentID} {
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
	list, err := h.service.List(c.Request.Context(), studioID, actor, q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid payment ID")
		return
	}

	studioID, actor := actorFrom(c)
	p, err := h.service.Get(c.Request.Context(), studioID, actor, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// Webhook godoc
// @Summary      Payment processor webhook
// @Description  Verifies the signature over the raw body and applies the event idempotently
// @Tags         Payments
// @Produce      json
// @Router       /webhooks/stripe [post]
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "Unable to read request body")
		return
	}

	err = h.service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	switch {
	case errors.Is(err, ErrInvalidSignature):
		h.log.Warn("webhook signature rejected", zap.String("client_ip", c.ClientIP()))
		response.Error(c, http.StatusBadRequest, "INVALID_SIGNATURE", "Invalid webhook signature")
	case err != nil:
		h.log.Error("webhook processing failed", zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "WEBHOOK_FAILED", "Webhook processing failed")
	default:
		response.Success(c, http.StatusOK, gin.H{"received": true})
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Payment not found")
	case errors.Is(err, ErrEnrollmentNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Enrollment not found")
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidMethod),
		errors.Is(err, ErrInvalidStatus):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrAlreadyPaid):
		response.Error(c, http.StatusBadRequest, "ALREADY_PAID", err.Error())
	case errors.Is(err, ErrEnrollmentCancelled):
		response.Error(c, http.StatusBadRequest, "ENROLLMENT_CANCELLED", err.Error())
	case errors.Is(err, ErrPaymentNotSucceeded):
		response.Error(c, http.StatusBadRequest, "PAYMENT_NOT_SUCCEEDED", err.Error())
	default:
		h.log.Error("payment request failed", zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process request")
	}
}
