package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods  = "GET,POST,PUT,PATCH,DELETE,OPTIONS"
	corsAllowHeaders  = "Content-Type, Authorization, X-User-Id, X-Request-Id"
	corsExposeHeaders = "X-Request-Id, Retry-After"
)

// CORS answers for the configured origins and short-circuits preflight requests.
// A "*" entry allows any origin but then credentials are not advertised.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	origins := make(map[string]struct{})
	anyOrigin := false
	for _, o := range allowedOrigins {
		trimmed := strings.TrimSpace(o)
		switch trimmed {
		case "":
		case "*":
			anyOrigin = true
		default:
			origins[trimmed] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			_, listed := origins[origin]
			if listed || anyOrigin {
				h := c.Writer.Header()
				h.Set("Vary", "Origin")
				if listed {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
				} else {
					h.Set("Access-Control-Allow-Origin", "*")
				}
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
				h.Set("Access-Control-Max-Age", "600")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		c.Next()
	}
}
