package resumes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-feedback/internal/shared/auth"
	"resume-feedback/internal/shared/server/middleware"
	"resume-feedback/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches read routes available to the resume owner and to HR.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resumes/:id", h.get)
	rg.GET("/resumes/:id/versions", h.listVersions)
	rg.GET("/resumes/:id/versions/:type", h.getVersion)
}

// RegisterReviewRoutes attaches the HR review routes; rg must already enforce the HR role.
func (h *Handler) RegisterReviewRoutes(rg *gin.RouterGroup) {
	rg.PUT("/resumes/:id/versions/:type", h.putVersion)
	rg.PATCH("/resumes/:id/status", h.setStatus)
	rg.GET("/reviews/pending", h.pending)
}

func (h *Handler) get(c *gin.Context) {
	doc, ok := h.loadOwned(c)
	if !ok {
		return
	}
	respond.OK(c, doc)
}

func (h *Handler) listVersions(c *gin.Context) {
	if _, ok := h.loadOwned(c); !ok {
		return
	}
	docs, err := h.Svc.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"versions": docs})
}

func (h *Handler) getVersion(c *gin.Context) {
	vt, err := ParseVersionType(c.Param("type"))
	if err != nil {
		writeError(c, err)
		return
	}
	if _, ok := h.loadOwned(c); !ok {
		return
	}
	doc, err := h.Svc.FetchVersion(c.Request.Context(), c.Param("id"), vt)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, doc)
}

// loadOwned fetches the user version and hides it from callers that neither own it nor review.
func (h *Handler) loadOwned(c *gin.Context) (ResumeDocument, bool) {
	c.Set("resumeId", c.Param("id"))
	doc, err := h.Svc.Fetch(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return ResumeDocument{}, false
	}
	if middleware.RoleFromContext(c) != auth.RoleHR && doc.Metadata.UserID != middleware.UserIDFromContext(c) {
		writeError(c, ErrNotFound)
		return ResumeDocument{}, false
	}
	return doc, true
}

type putVersionRequest struct {
	Content    map[string]any `json:"content"`
	IsComplete bool           `json:"is_complete"`
	Status     string         `json:"status"`
	ModelInfo  map[string]any `json:"model_info"`
}

func (h *Handler) putVersion(c *gin.Context) {
	vt, err := ParseVersionType(c.Param("type"))
	if err != nil {
		writeError(c, err)
		return
	}
	var req putVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	var status Status
	if req.Status != "" {
		if status, err = ParseStatus(req.Status); err != nil {
			writeError(c, err)
			return
		}
	}
	c.Set("resumeId", c.Param("id"))
	id, err := h.Svc.CreateDerivedVersion(c.Request.Context(), c.Param("id"), vt, req.Content, DerivedVersionInput{
		IsComplete: req.IsComplete,
		Status:     status,
		ModelInfo:  req.ModelInfo,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"versionId": id, "resumeId": c.Param("id"), "versionType": vt})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) setStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("resumeId", c.Param("id"))
	if err := h.Svc.SetStatus(c.Request.Context(), c.Param("id"), status); err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"resumeId": c.Param("id"), "status": status})
}

func (h *Handler) pending(c *gin.Context) {
	limit := PendingReviewLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer", nil)
			return
		}
		limit = n
	}
	items, err := h.Svc.ListPendingReview(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, ErrorCodeNotFound, "resume not found", nil)
	case errors.Is(err, ErrVersionLocked):
		respond.Error(c, http.StatusConflict, ErrorCodeVersionLocked, err.Error(), nil)
	case errors.Is(err, ErrInvalidVersionType):
		respond.Error(c, http.StatusBadRequest, ErrorCodeInvalidVersionType, err.Error(), nil)
	case errors.Is(err, ErrInvalidStatus):
		respond.Error(c, http.StatusBadRequest, ErrorCodeInvalidStatus, err.Error(), nil)
	case errors.Is(err, ErrEmptyContent):
		respond.Error(c, http.StatusBadRequest, ErrorCodeEmptyContent, err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, ErrorCodeStore, "failed to access resume store", nil)
	}
}
