package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-feedback/internal/extract"
	"resume-feedback/internal/extraction"
	"resume-feedback/internal/feedback"
	"resume-feedback/internal/llm"
	"resume-feedback/internal/notify"
	"resume-feedback/internal/resumes"
	"resume-feedback/internal/shared/telemetry"
	"resume-feedback/internal/users"
)

const (
	ErrorCodeInputError        = "INPUT_ERROR"
	ErrorCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrorCodeMalformedResponse = "MALFORMED_RESPONSE"
	ErrorCodeValidation        = "VALIDATION_ERROR"
	ErrorCodeVersionLocked     = "VERSION_LOCKED"
	ErrorCodeNotFound          = "NOT_FOUND"
	ErrorCodeStore             = "STORE_ERROR"
	ErrorCodeTimeout           = "TIMEOUT"
	ErrorCodeInternal          = "INTERNAL_ERROR"
)

// Pipeline steps reported in Failure.Stage.
const (
	StepLookupUser       = "lookup_user"
	StepStoreUpload      = "store_upload"
	StepExtractText      = "extract_text"
	StepExtractSections  = "extract_sections"
	StepStoreUserVersion = "store_user_version"
	StepFetchResume      = "fetch_resume"
	StepGenerateFeedback = "generate_feedback"
	StepStoreFeedback    = "store_feedback"
	StepDraftEmail       = "draft_email"
)

// Failure is the structured error returned when a pipeline step aborts the run.
type Failure struct {
	Success bool   `json:"success"`
	Stage   string `json:"stage"`
	Code    string `json:"code"`
	Detail  string `json:"detail"`
	Err     error  `json:"-"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Stage, f.Detail)
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(stage string, err error) *Failure {
	return &Failure{
		Success: false,
		Stage:   stage,
		Code:    classify(err),
		Detail:  sanitizeError(err),
		Err:     err,
	}
}

func classify(err error) string {
	switch {
	case errors.Is(err, extract.ErrInputEmpty), errors.Is(err, extraction.ErrInputEmpty),
		errors.Is(err, notify.ErrMissingRecipient), errors.Is(err, feedback.ErrNoFeedback):
		return ErrorCodeInputError
	case errors.Is(err, llm.ErrRateLimitExceeded):
		return ErrorCodeRateLimitExceeded
	case errors.Is(err, llm.ErrMalformedResponse):
		return ErrorCodeMalformedResponse
	case errors.Is(err, extraction.ErrValidation):
		return ErrorCodeValidation
	case errors.Is(err, resumes.ErrVersionLocked):
		return ErrorCodeVersionLocked
	case errors.Is(err, resumes.ErrNotFound), errors.Is(err, users.ErrNotFound):
		return ErrorCodeNotFound
	case errors.Is(err, resumes.ErrStore):
		return ErrorCodeStore
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorCodeTimeout
	}
	return ErrorCodeInternal
}

// maxErrorDetail caps Failure.Detail in runes.
const maxErrorDetail = 500

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	return telemetry.Truncate(strings.TrimSpace(msg), maxErrorDetail)
}
