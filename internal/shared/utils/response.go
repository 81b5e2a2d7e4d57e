package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tokengate/internal/shared/errors"
)

// APIResponse represents a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorInfo represents error information in API response
type ErrorInfo struct {
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse sends a successful response with custom status code
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// ErrorResponse sends an error response with custom status code
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &ErrorInfo{
			Type:    "error",
			Message: message,
		},
	})
}

// AuthErrorResponse maps an engine error onto an HTTP status and the
// standard envelope, preserving the stable numeric reason code.
func AuthErrorResponse(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	info := &ErrorInfo{Type: "internal", Message: "internal error"}

	switch {
	case errors.IsNotLoggedIn(err):
		status = http.StatusUnauthorized
		info.Type = "not_logged_in"
		info.Code = errors.NotLoggedInReason(err)
		info.Message = err.Error()
	case errors.IsNotInRole(err):
		status = http.StatusForbidden
		info.Type = "not_in_role"
		info.Code = errors.CodeNotRole
		info.Message = err.Error()
	case errors.IsNotInPermission(err):
		status = http.StatusForbidden
		info.Type = "not_in_permission"
		info.Code = errors.CodeNotPermission
		info.Message = err.Error()
	case errors.IsServiceDisabled(err):
		status = http.StatusForbidden
		info.Type = "service_disabled"
		info.Code = errors.CodeDisable
		info.Message = err.Error()
	case errors.IsNotPassedSafeAuth(err):
		status = http.StatusForbidden
		info.Type = "not_safe"
		info.Code = errors.CodeNotSafe
		info.Message = err.Error()
	case errors.IsValidationError(err):
		status = http.StatusBadRequest
		info.Type = "validation"
		info.Message = err.Error()
	default:
		if appErr := errors.GetAppError(err); appErr != nil {
			info.Code = appErr.Code
		}
	}

	c.JSON(status, APIResponse{Success: false, Error: info})
}
