package orchestrator

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-feedback/internal/resumes"
	"resume-feedback/internal/shared/auth"
	"resume-feedback/internal/shared/server/middleware"
	"resume-feedback/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

type Handler struct {
	Orch *Orchestrator
}

func NewHandler(o *Orchestrator) *Handler {
	return &Handler{Orch: o}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.upload)
	rg.POST("/resumes/:id/feedback", h.regenerate)
	rg.POST("/resumes/:id/email-draft", h.draft)
	rg.GET("/runs/:id", h.run)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	out, err := h.Orch.ProcessRawResume(c.Request.Context(), Upload{
		UserID:   userID,
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Data:     data,
	})
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.Set("resumeId", out.ResumeID)
	c.Set("runId", out.RunID)
	respond.Created(c, out)
}

func (h *Handler) regenerate(c *gin.Context) {
	if !h.authorize(c, c.Param("id")) {
		return
	}
	out, err := h.Orch.GenerateFeedback(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.Set("resumeId", out.ResumeID)
	c.Set("runId", out.RunID)
	respond.OK(c, out)
}

type draftRequest struct {
	Recipient string `json:"recipient"`
	Name      string `json:"name"`
	Polish    bool   `json:"polish"`
}

func (h *Handler) draft(c *gin.Context) {
	if !h.authorize(c, c.Param("id")) {
		return
	}
	var req draftRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	meta, err := h.Orch.DraftFeedbackEmail(c.Request.Context(), c.Param("id"), DraftRequest{
		Recipient: strings.TrimSpace(req.Recipient),
		Name:      strings.TrimSpace(req.Name),
		Polish:    req.Polish,
	})
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.Set("resumeId", c.Param("id"))
	respond.Created(c, meta)
}

func (h *Handler) run(c *gin.Context) {
	run, ok := h.Orch.Run(c.Param("id"))
	if !ok || !canSee(c, run.UserID) {
		respond.Error(c, http.StatusNotFound, "not_found", "run not found", nil)
		return
	}
	respond.OK(c, run)
}

// authorize lets the owner of resumeID or a reviewer through; anyone else sees a missing resume.
func (h *Handler) authorize(c *gin.Context, resumeID string) bool {
	c.Set("resumeId", resumeID)
	doc, err := h.Orch.Resumes.Fetch(c.Request.Context(), resumeID)
	if err != nil {
		writeFailure(c, fail(StepFetchResume, err))
		return false
	}
	if !canSee(c, doc.Metadata.UserID) {
		writeFailure(c, fail(StepFetchResume, resumes.ErrNotFound))
		return false
	}
	return true
}

func canSee(c *gin.Context, ownerID string) bool {
	return middleware.RoleFromContext(c) == auth.RoleHR || ownerID == middleware.UserIDFromContext(c)
}

func writeFailure(c *gin.Context, err error) {
	var f *Failure
	if !errors.As(err, &f) {
		f = fail("unknown", err)
	}
	respond.Error(c, StatusFor(f.Code), strings.ToLower(f.Code), f.Detail, f)
}

// StatusFor maps a failure code to an HTTP status.
func StatusFor(code string) int {
	switch code {
	case ErrorCodeInputError:
		return http.StatusBadRequest
	case ErrorCodeValidation, ErrorCodeMalformedResponse:
		return http.StatusUnprocessableEntity
	case ErrorCodeVersionLocked:
		return http.StatusConflict
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeRateLimitExceeded:
		return http.StatusServiceUnavailable
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
