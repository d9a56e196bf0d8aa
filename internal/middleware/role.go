package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studiohub/internal/domain"
	"studiohub/internal/pkg/response"
)

// RequireRole ensures that the authenticated user has one of the roles.
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	allowed := make(map[domain.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, exists := c.Get(ContextRole)
		if !exists {
			response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			return
		}

		roleStr, _ := role.(string)
		if _, ok := allowed[domain.UserRole(roleStr)]; !ok {
			response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}

		c.Next()
	}
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}

// StaffOnly allows studio admins and instructors.
func StaffOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin, domain.RoleInstructor)
}

// RequireStudio rejects callers that are not assigned to a studio yet.
func RequireStudio() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextStudioID); !ok {
			response.CustomError(c, http.StatusForbidden, "NO_STUDIO", "You are not a member of any studio")
			return
		}
		c.Next()
	}
}
