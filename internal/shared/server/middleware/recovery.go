package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"resume-feedback/internal/shared/server/respond"
	"resume-feedback/internal/shared/telemetry"
)

// Recovery turns a panic in a handler into a 500 and logs the stack with the
// pipeline identifiers known at that point.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			fields := map[string]any{
				"request_id": RequestIDFromContext(c),
				"error":      rec,
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			}
			for _, key := range []string{userIDKey, "resumeId", "runId"} {
				if v := contextString(c, key); v != "" {
					fields[logKey(key)] = v
				}
			}
			telemetry.Error("panic", fields)
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
		}()
		c.Next()
	}
}

func logKey(contextKey string) string {
	switch contextKey {
	case userIDKey:
		return "user_id"
	case "resumeId":
		return "resume_id"
	case "runId":
		return "run_id"
	}
	return contextKey
}
