package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-feedback/internal/shared/auth"
	"resume-feedback/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userRoleKey  = "userRole"
	isGuestKey   = "isGuest"
)

// GuestPrefix namespaces unverified header identities so they never match a registered user.
const GuestPrefix = "guest:"

// Auth accepts either a bearer JWT signed with secret or an X-User-Id header,
// and stores the identity in context. Header identities are stored as
// GuestPrefix+id with the candidate role.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			claims, err := auth.VerifyJWT(key, token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Set(userIDKey, claims.Subject)
			c.Set(userRoleKey, claims.Role)
			if claims.Email != "" {
				c.Set(userEmailKey, claims.Email)
			}
			c.Next()
			return
		}

		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if userID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}
		c.Set(userIDKey, GuestPrefix+userID)
		c.Set(userRoleKey, auth.RoleCandidate)
		c.Set(isGuestKey, true)
		c.Next()
	}
}

// RequireRole rejects requests whose identity does not carry role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if RoleFromContext(c) != role {
			respond.Error(c, http.StatusForbidden, "forbidden", "insufficient role", nil)
			return
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return contextString(c, userIDKey)
}

// UserEmailFromContext fetches the email claim, if any.
func UserEmailFromContext(c *gin.Context) string {
	return contextString(c, userEmailKey)
}

// IsGuestFromContext reports whether the identity came from the X-User-Id header.
func IsGuestFromContext(c *gin.Context) bool {
	if c == nil {
		return false
	}
	val, _ := c.Get(isGuestKey)
	guest, _ := val.(bool)
	return guest
}

// RoleFromContext fetches the caller's role.
func RoleFromContext(c *gin.Context) string {
	return contextString(c, userRoleKey)
}

func contextString(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
