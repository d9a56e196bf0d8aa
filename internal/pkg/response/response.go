// Package response writes the JSON envelope shared by every endpoint:
// {"success":true,"data":...} or {"success":false,"error":{...}}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// requestIDKey matches the key the request-id middleware stores on the
// gin context.
const requestIDKey = "request_id"

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   errorBody(c, code, message, nil),
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error":   errorBody(c, code, message, details),
	})
}

// CustomError writes an error envelope and aborts the handler chain.
func CustomError(c *gin.Context, statusCode int, code string, message string) {
	Error(c, statusCode, code, message)
	c.Abort()
}

func ValidationError(c *gin.Context, details map[string]string) {
	ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", details)
}

func errorBody(c *gin.Context, code, message string, details any) gin.H {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	if id := c.GetString(requestIDKey); id != "" {
		body["request_id"] = id
	}
	return body
}
