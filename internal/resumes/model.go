package resumes

import (
	"fmt"
	"strings"
	"time"
)

// VersionType identifies the author and purpose of a stored resume copy.
type VersionType string

const (
	VersionUser        VersionType = "user"
	VersionLLM         VersionType = "llm"
	VersionLLMFeedback VersionType = "llm_feedback"
	VersionHR          VersionType = "hr"
	VersionHRFeedback  VersionType = "hr_feedback"
	VersionMaster      VersionType = "master"
)

var versionTypes = []VersionType{VersionUser, VersionLLM, VersionLLMFeedback, VersionHR, VersionHRFeedback, VersionMaster}

// ParseVersionType validates raw against the known version types.
func ParseVersionType(raw string) (VersionType, error) {
	v := VersionType(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range versionTypes {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidVersionType, raw)
}

// Derived reports whether v is stored alongside a user version rather than being one.
func (v VersionType) Derived() bool {
	return v != VersionUser
}

// Status is the human review state of a resume.
type Status string

const (
	StatusPending  Status = "pendiente"
	StatusInReview Status = "en revisión"
	StatusReviewed Status = "revisado"
)

// ParseStatus validates a review status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusInReview, StatusReviewed:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// PendingReviewLimit caps the HR review queue.
const PendingReviewLimit = 50

// Metadata describes one stored version.
type Metadata struct {
	VersionType  VersionType    `json:"version_type"`
	UserID       string         `json:"user_id"`
	ResumeID     string         `json:"resume_id"`
	CreatedAt    time.Time      `json:"created_at"`
	LastUpdated  time.Time      `json:"last_updated"`
	IsComplete   bool           `json:"is_complete"`
	Status       Status         `json:"status,omitempty"`
	Industry     string         `json:"industry,omitempty"`
	GoogleDocURL string         `json:"google_doc_url,omitempty"`
	ModelInfo    map[string]any `json:"model_info,omitempty"`
}

// ResumeDocument is one version of a resume. For the user version ID equals Metadata.ResumeID.
type ResumeDocument struct {
	ID       string         `json:"id"`
	Content  map[string]any `json:"content"`
	Metadata Metadata       `json:"metadata"`
}

// UserVersionInput carries optional metadata for the user version write.
type UserVersionInput struct {
	// IsComplete is only honoured when the version is first created.
	IsComplete *bool
	Status     Status
	Industry   string
	ModelInfo  map[string]any
}

// DerivedVersionInput carries optional metadata for a derived version write.
type DerivedVersionInput struct {
	IsComplete bool
	Status     Status
	ModelInfo  map[string]any
}

// ReviewItem is one entry of the HR review queue.
type ReviewItem struct {
	ResumeID       string    `json:"resume_id"`
	UserID         string    `json:"user_id"`
	Status         Status    `json:"status"`
	Industry       string    `json:"industry,omitempty"`
	GoogleDocURL   string    `json:"google_doc_url,omitempty"`
	SubmissionDate time.Time `json:"submission_date"`
}
