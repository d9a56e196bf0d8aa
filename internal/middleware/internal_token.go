package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studiohub/internal/pkg/response"
)

// InternalTokenAuth protects operator endpoints with a static bearer token.
// An empty allowedIPs list accepts any client address.
func InternalTokenAuth(token string, allowedIPs []string, log *zap.Logger) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedIPs))
	for _, ip := range allowedIPs {
		if ip = strings.TrimSpace(ip); ip != "" {
			allowed[ip] = true
		}
	}
	expected := []byte(token)

	return func(c *gin.Context) {
		if len(expected) == 0 {
			logInternalAuthFailure(c, log, http.StatusForbidden, "disabled")
			response.CustomError(c, http.StatusForbidden, "INTERNAL_API_DISABLED", "Internal API is disabled")
			return
		}

		if len(allowed) > 0 && !allowed[c.ClientIP()] {
			logInternalAuthFailure(c, log, http.StatusForbidden, "ip_not_allowed")
			response.CustomError(c, http.StatusForbidden, "AUTH_INVALID", "IP not allowed")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logInternalAuthFailure(c, log, http.StatusUnauthorized, "missing_auth")
			response.CustomError(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logInternalAuthFailure(c, log, http.StatusUnauthorized, "invalid_auth_format")
			response.CustomError(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			return
		}

		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(parts[1])), expected) != 1 {
			logInternalAuthFailure(c, log, http.StatusForbidden, "invalid_token")
			response.CustomError(c, http.StatusForbidden, "AUTH_INVALID", "Invalid internal token")
			return
		}

		c.Next()
	}
}

func logInternalAuthFailure(c *gin.Context, log *zap.Logger, status int, reason string) {
	log.Warn("internal auth rejected",
		zap.Int("status", status),
		zap.String("reason", reason),
		zap.String("client_ip", c.ClientIP()),
		zap.String("request_id", c.GetString(ContextRequestID)),
	)
}
