package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Created is used when a request stored a new user, resume version or draft.
func Created(c *gin.Context, payload any) {
	JSON(c, http.StatusCreated, payload)
}
