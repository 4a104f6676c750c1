package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-feedback/internal/shared/telemetry"
)

// Logging emits one request.complete line per request. Probe routes log at debug
// so health checks and metric scrapes do not drown pipeline traffic.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"role":        RoleFromContext(c),
			"is_guest":    IsGuestFromContext(c),
			"resume_id":   c.GetString("resumeId"),
			"run_id":      c.GetString("runId"),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			telemetry.Error("request.complete", fields)
		case isProbeRoute(c.FullPath()):
			telemetry.Debug("request.complete", fields)
		default:
			telemetry.Info("request.complete", fields)
		}
	}
}

func isProbeRoute(route string) bool {
	return route == "/api/v1/health" || route == "/api/v1/metrics"
}
