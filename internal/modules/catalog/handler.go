package catalog

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

// RegisterPublicRoutes exposes the serial lookup used on the sign-up page.
func (h *Handler) RegisterPublicRoutes(public *gin.RouterGroup) {
	public.GET("/studios/lookup/:serial", h.Lookup)
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	studios := protected.Group("/studios")
	{
		studios.POST("", h.CreateStudio)
		studios.POST("/join", h.JoinStudio)
		studios.GET("/me", middleware.RequireStudio(), h.GetMyStudio)
		studios.PUT("/me", middleware.RequireStudio(), middleware.AdminOnly(), h.UpdateMyStudio)
	}

	branches := protected.Group("/branches", middleware.RequireStudio())
	{
		branches.GET("", h.ListBranches)
		branches.POST("", middleware.AdminOnly(), h.CreateBranch)
		branches.PUT("/:id", middleware.AdminOnly(), h.UpdateBranch)
		branches.DELETE("/:id", middleware.AdminOnly(), h.DeleteBranch)
	}

	rooms := protected.Group("/rooms", middleware.RequireStudio())
	{
		rooms.GET("", h.ListRooms)
		rooms.POST("", middleware.AdminOnly(), h.CreateRoom)
		rooms.PUT("/:id", middleware.AdminOnly(), h.UpdateRoom)
		rooms.DELETE("/:id", middleware.AdminOnly(), h.DeleteRoom)
	}
}

/* ---------- STUDIO ---------- */

func (h *Handler) CreateStudio(c *gin.Context) {
	var req CreateStudioRequest
	if !bind(c, &req) {
		return
	}

	res, err := h.service.CreateStudio(c.Request.Context(), middleware.CallerFrom(c).UserID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

func (h *Handler) JoinStudio(c *gin.Context) {
	var req JoinStudioRequest
	if !bind(c, &req) {
		return
	}

	res, err := h.service.JoinStudio(c.Request.Context(), middleware.CallerFrom(c).UserID, req.SerialNumber)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) GetMyStudio(c *gin.Context) {
	studio, err := h.service.GetStudio(c.Request.Context(), middleware.CallerFrom(c).Studio())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, studio)
}

func (h *Handler) UpdateMyStudio(c *gin.Context) {
	var req UpdateStudioRequest
	if !bind(c, &req) {
		return
	}

	studio, err := h.service.UpdateStudio(c.Request.Context(), middleware.CallerFrom(c).Studio(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, studio)
}

func (h *Handler) Lookup(c *gin.Context) {
	res, err := h.service.LookupBySerial(c.Request.Context(), c.Param("serial"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

/* ---------- BRANCHES ---------- */

func (h *Handler) ListBranches(c *gin.Context) {
	branches, err := h.service.ListBranches(c.Request.Context(), middleware.CallerFrom(c).Studio())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, branches)
}

func (h *Handler) CreateBranch(c *gin.Context) {
	var req BranchRequest
	if !bind(c, &req) {
		return
	}

	b, err := h.service.CreateBranch(c.Request.Context(), middleware.CallerFrom(c).Studio(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, b)
}

func (h *Handler) UpdateBranch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req BranchRequest
	if !bind(c, &req) {
		return
	}

	b, err := h.service.UpdateBranch(c.Request.Context(), middleware.CallerFrom(c).Studio(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) DeleteBranch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteBranch(c.Request.Context(), middleware.CallerFrom(c).Studio(), id); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

/* ---------- ROOMS ---------- */

func (h *Handler) ListRooms(c *gin.Context) {
	var branchID int64
	if raw := c.Query("branch_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid branch_id")
			return
		}
		branchID = v
	}

	rooms, err := h.service.ListRooms(c.Request.Context(), middleware.CallerFrom(c).Studio(), branchID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, rooms)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if !bind(c, &req) {
		return
	}

	room, err := h.service.CreateRoom(c.Request.Context(), middleware.CallerFrom(c).Studio(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, room)
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateRoomRequest
	if !bind(c, &req) {
		return
	}

	room, err := h.service.UpdateRoom(c.Request.Context(), middleware.CallerFrom(c).Studio(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, room)
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteRoom(c.Request.Context(), middleware.CallerFrom(c).Studio(), id); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ValidationError(c, validator.Fields(err))
		return false
	}
	if details := validator.Validate(req); len(details) > 0 {
		response.ValidationError(c, details)
		return false
	}
	return true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrStudioNotFound):
		response.Error(c, http.StatusNotFound, "STUDIO_NOT_FOUND", "Studio not found")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, ErrBranchNotFound):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrAlreadyHasStudio):
		response.Error(c, http.StatusConflict, "ALREADY_IN_STUDIO", err.Error())
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Instructors cannot create a studio")
	default:
		h.log.Error("catalog request failed", zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process request")
	}
}
