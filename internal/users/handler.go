package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"resume-feedback/internal/shared/auth"
	"resume-feedback/internal/shared/server/middleware"
	"resume-feedback/internal/shared/server/respond"
)

// Handler serves registration and email lookup. When TokenSecret is set,
// registration also returns a signed candidate token.
type Handler struct {
	Svc         *Service
	TokenSecret []byte
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes mounts registration; rg is expected to be public.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/users", h.create)
}

// RegisterLookupRoutes mounts the email lookup; rg must run the auth middleware.
func (h *Handler) RegisterLookupRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/by-email", h.byEmail)
}

type createResponse struct {
	User
	Token string `json:"token,omitempty"`
}

type createRequest struct {
	Email    string `json:"email"`
	Industry string `json:"industry"`
}

func (h *Handler) create(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	user, err := h.Svc.Register(c.Request.Context(), req.Email, req.Industry)
	if err != nil {
		h.writeError(c, err, "failed to create user")
		return
	}
	out := createResponse{User: user}
	if len(h.TokenSecret) > 0 {
		token, err := auth.SignJWT(h.TokenSecret, auth.Claims{
			Email:            user.Email,
			Role:             auth.RoleCandidate,
			RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
		})
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
			return
		}
		out.Token = token
	}
	respond.Created(c, out)
}

func (h *Handler) byEmail(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	user, err := h.Svc.LookupByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		h.writeError(c, err, "failed to load user")
		return
	}
	if middleware.RoleFromContext(c) != auth.RoleHR && user.ID != middleware.UserIDFromContext(c) {
		h.writeError(c, ErrNotFound, "")
		return
	}
	respond.OK(c, gin.H{"userId": user.ID, "email": user.Email, "industry": user.Industry})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		respond.Error(c, http.StatusBadRequest, "invalid_email", "a valid email is required", nil)
	case errors.Is(err, ErrEmailTaken):
		respond.Error(c, http.StatusConflict, "email_taken", "email already registered", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
