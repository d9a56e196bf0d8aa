package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studiohub/internal/domain"
	"studiohub/internal/pkg/jwt"
	"studiohub/internal/pkg/response"
)

const (
	ContextUserID   = "user_id"
	ContextRole     = "role"
	ContextStudioID = "studio_id"
)

// JWTAuth validates the bearer access token and exposes its claims on the
// gin context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.CustomError(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		if claims.StudioID != nil {
			c.Set(ContextStudioID, *claims.StudioID)
		}
		c.Next()
	}
}

// Caller is the authenticated principal of a request.
type Caller struct {
	UserID   int64
	Role     domain.UserRole
	StudioID *int64
}

func (c Caller) IsAdmin() bool      { return c.Role == domain.RoleAdmin }
func (c Caller) IsInstructor() bool { return c.Role == domain.RoleInstructor }
func (c Caller) IsStudent() bool    { return c.Role == domain.RoleStudent }

// Studio returns the caller's studio id or 0 when they have none.
func (c Caller) Studio() int64 {
	if c.StudioID == nil {
		return 0
	}
	return *c.StudioID
}

func CallerFrom(c *gin.Context) Caller {
	caller := Caller{
		UserID: c.GetInt64(ContextUserID),
		Role:   domain.UserRole(c.GetString(ContextRole)),
	}
	if v, ok := c.Get(ContextStudioID); ok {
		if id, ok := v.(int64); ok {
			caller.StudioID = &id
		}
	}
	return caller
}
