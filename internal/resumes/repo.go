package resumes

import (
	"context"
	"time"
)

// UserVersionFunc decides the next state of a user's version. existing is nil when none is stored.
type UserVersionFunc func(existing *ResumeDocument) (ResumeDocument, error)

// Repo is the document store behind the version service.
type Repo interface {
	// UpdateUserVersion serializes writers of one user's version and persists what fn returns.
	UpdateUserVersion(ctx context.Context, userID string, fn UserVersionFunc) (ResumeDocument, error)
	GetByID(ctx context.Context, resumeID string) (ResumeDocument, error)
	GetByUserID(ctx context.Context, userID string) (ResumeDocument, error)
	// UpsertVersion stores a derived version keyed by (resume_id, version_type) and returns the stored row.
	UpsertVersion(ctx context.Context, doc ResumeDocument) (ResumeDocument, error)
	GetVersion(ctx context.Context, resumeID string, versionType VersionType) (ResumeDocument, error)
	ListVersions(ctx context.Context, resumeID string) ([]ResumeDocument, error)
	SetStatus(ctx context.Context, resumeID string, status Status, at time.Time) error
	SetDocumentURL(ctx context.Context, resumeID string, versionType VersionType, url string, at time.Time) error
	ListPendingReview(ctx context.Context, limit int) ([]ReviewItem, error)
}
