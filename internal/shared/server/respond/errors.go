package respond

import (
	"github.com/gin-gonic/gin"

	"resume-feedback/internal/shared/telemetry"
)

// ErrorBody is the error object every endpoint returns.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// context keys copied into error logs, with their log field names.
var errorLogKeys = [][2]string{
	{"requestId", "request_id"},
	{"userId", "user_id"},
	{"userRole", "role"},
	{"resumeId", "resume_id"},
	{"runId", "run_id"},
}

// Error aborts the request with a structured error. Client errors log at warn
// and server errors at error.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":  status,
		"code":    code,
		"message": message,
		"path":    c.Request.URL.Path,
		"method":  c.Request.Method,
	}
	for _, k := range errorLogKeys {
		if v := c.GetString(k[0]); v != "" {
			fields[k[1]] = v
		}
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
