package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard-backend/internal/shared/apperr"
	"jobboard-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Info("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:       http.StatusBadRequest,
	apperr.KindUnauthorized:     http.StatusUnauthorized,
	apperr.KindForbidden:        http.StatusForbidden,
	apperr.KindNotFound:         http.StatusNotFound,
	apperr.KindConflict:         http.StatusConflict,
	apperr.KindInvalidOperation: http.StatusUnprocessableEntity,
	apperr.KindUnavailable:      http.StatusServiceUnavailable,
}

// FromError renders a service error. Unknown errors become a generic 500 and
// their cause is logged, never echoed.
func FromError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		telemetry.Error("http.unhandled_error", map[string]any{
			"request_id": c.GetString("requestId"),
			"path":       c.Request.URL.Path,
			"err":        err,
		})
		Error(c, http.StatusInternalServerError, string(apperr.KindInternal), "Unexpected server error", nil)
		return
	}
	if kind == apperr.KindUnavailable {
		telemetry.Error("http.unavailable", map[string]any{
			"request_id": c.GetString("requestId"),
			"path":       c.Request.URL.Path,
			"err":        err,
		})
	}

	msg := apperr.MessageOf(err)
	if msg == "" {
		msg = http.StatusText(status)
	}
	var details interface{}
	if fields := apperr.FieldsOf(err); len(fields) > 0 {
		details = fields
	}
	Error(c, status, string(kind), msg, details)
}
