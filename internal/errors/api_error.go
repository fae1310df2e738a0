package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the JSON body returned by the panel surface for rejected requests.
type APIError struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewAPIError creates a new APIError with the given message and optional details.
func NewAPIError(message string, details map[string]interface{}) *APIError {
	return &APIError{
		Error:   message,
		Details: details,
	}
}

// AbortWithBadRequest sends a 400 Bad Request response and aborts the request.
func AbortWithBadRequest(c *gin.Context, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(http.StatusBadRequest, NewAPIError(message, details))
}

// AbortWithConflict sends a 409 Conflict response and aborts the request.
// Used when the panel cannot take the action in its current state.
func AbortWithConflict(c *gin.Context, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(http.StatusConflict, NewAPIError(message, details))
}

// AbortWithInternal sends a 500 Internal Server Error response and aborts the request.
func AbortWithInternal(c *gin.Context, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, NewAPIError(message, details))
}

// AbortWithForbidden sends a 403 Forbidden response and aborts the request.
func AbortWithForbidden(c *gin.Context, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(http.StatusForbidden, NewAPIError(message, details))
}

// AbortWithUnsupportedMediaType sends a 415 Unsupported Media Type response and aborts the request.
func AbortWithUnsupportedMediaType(c *gin.Context, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, NewAPIError(message, details))
}
