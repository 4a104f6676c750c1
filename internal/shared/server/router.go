package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-feedback/internal/orchestrator"
	"resume-feedback/internal/resumes"
	"resume-feedback/internal/shared/auth"
	"resume-feedback/internal/shared/config"
	"resume-feedback/internal/shared/metrics"
	"resume-feedback/internal/shared/server/middleware"
	"resume-feedback/internal/shared/server/respond"
	"resume-feedback/internal/users"
)

// RouterDeps carries the handlers mounted under /api/v1. Nil handlers are skipped.
type RouterDeps struct {
	Config          config.Config
	UserHandler     *users.Handler
	ResumeHandler   *resumes.Handler
	PipelineHandler *orchestrator.Handler
	RateLimits      map[string]middleware.RateLimitRule
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	rules := deps.RateLimits
	if rules == nil {
		rules = middleware.DefaultRateLimitRules
	}
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}

	authed := api.Group("",
		middleware.Auth(deps.Config.JWTSecret),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rules,
			GroupFor: middleware.PipelineGroupFor,
		}),
	)
	registerMeRoutes(authed)
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterLookupRoutes(authed)
	}
	if deps.ResumeHandler != nil {
		deps.ResumeHandler.RegisterRoutes(authed)
		deps.ResumeHandler.RegisterReviewRoutes(authed.Group("", middleware.RequireRole(auth.RoleHR)))
	}
	if deps.PipelineHandler != nil {
		deps.PipelineHandler.RegisterRoutes(authed)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
