package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-feedback/internal/shared/server/middleware"
	"resume-feedback/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
		return
	}

	response := gin.H{
		"userId": userID,
		"role":   middleware.RoleFromContext(c),
	}
	if email := middleware.UserEmailFromContext(c); email != "" {
		response["email"] = email
	}

	respond.JSON(c, http.StatusOK, response)
}
