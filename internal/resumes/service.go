package resumes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"resume-feedback/internal/shared/telemetry"
)

// Service enforces version rules on top of a Repo.
type Service struct {
	Repo  Repo
	Now   func() time.Time
	NewID func() string
}

// NewService wires a service with UTC clock and UUID ids.
func NewService(repo Repo) *Service {
	return &Service{
		Repo:  repo,
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: uuid.NewString,
	}
}

// CreateOrUpdateUserVersion writes the single user version for userID and returns its resume id.
func (s *Service) CreateOrUpdateUserVersion(ctx context.Context, userID string, content map[string]any, in UserVersionInput) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	if len(content) == 0 {
		return "", ErrEmptyContent
	}
	now := s.Now()
	newID := s.NewID()
	doc, err := s.Repo.UpdateUserVersion(ctx, userID, func(existing *ResumeDocument) (ResumeDocument, error) {
		return applyUserWrite(existing, userID, newID, content, in, now)
	})
	if err != nil {
		if errors.Is(err, ErrVersionLocked) {
			telemetry.Warn("user version locked", map[string]any{"user_id": userID})
		}
		return "", storeErr(err)
	}
	telemetry.Info("user version saved", map[string]any{
		"user_id":     userID,
		"resume_id":   doc.ID,
		"is_complete": doc.Metadata.IsComplete,
	})
	return doc.ID, nil
}

// CreateDerivedVersion stores a non-user version for resumeID; last write wins.
func (s *Service) CreateDerivedVersion(ctx context.Context, resumeID string, versionType VersionType, content map[string]any, in DerivedVersionInput) (string, error) {
	if _, err := ParseVersionType(string(versionType)); err != nil {
		return "", err
	}
	if !versionType.Derived() {
		return "", fmt.Errorf("%w: user versions are written with CreateOrUpdateUserVersion", ErrInvalidVersionType)
	}
	if len(content) == 0 {
		return "", ErrEmptyContent
	}
	parent, err := s.Repo.GetByID(ctx, resumeID)
	if err != nil {
		return "", storeErr(err)
	}
	now := s.Now()
	doc, err := s.Repo.UpsertVersion(ctx, ResumeDocument{
		ID:      s.NewID(),
		Content: content,
		Metadata: Metadata{
			VersionType: versionType,
			UserID:      parent.Metadata.UserID,
			ResumeID:    resumeID,
			CreatedAt:   now,
			LastUpdated: now,
			IsComplete:  in.IsComplete,
			Status:      in.Status,
			ModelInfo:   in.ModelInfo,
		},
	})
	if err != nil {
		return "", storeErr(err)
	}
	telemetry.Info("derived version saved", map[string]any{
		"resume_id":    resumeID,
		"version_id":   doc.ID,
		"version_type": string(versionType),
	})
	return doc.ID, nil
}

// Fetch returns the user version identified by resumeID.
func (s *Service) Fetch(ctx context.Context, resumeID string) (ResumeDocument, error) {
	doc, err := s.Repo.GetByID(ctx, resumeID)
	if err != nil {
		return ResumeDocument{}, storeErr(err)
	}
	return doc, nil
}

// FetchByUser returns the user version owned by userID.
func (s *Service) FetchByUser(ctx context.Context, userID string) (ResumeDocument, error) {
	doc, err := s.Repo.GetByUserID(ctx, userID)
	if err != nil {
		return ResumeDocument{}, storeErr(err)
	}
	return doc, nil
}

// FetchVersion returns one version of resumeID.
func (s *Service) FetchVersion(ctx context.Context, resumeID string, versionType VersionType) (ResumeDocument, error) {
	if _, err := ParseVersionType(string(versionType)); err != nil {
		return ResumeDocument{}, err
	}
	doc, err := s.Repo.GetVersion(ctx, resumeID, versionType)
	if err != nil {
		return ResumeDocument{}, storeErr(err)
	}
	return doc, nil
}

// ListVersions returns the user version followed by every derived version.
func (s *Service) ListVersions(ctx context.Context, resumeID string) ([]ResumeDocument, error) {
	docs, err := s.Repo.ListVersions(ctx, resumeID)
	if err != nil {
		return nil, storeErr(err)
	}
	return docs, nil
}

// SetStatus moves a resume through the human review workflow.
func (s *Service) SetStatus(ctx context.Context, resumeID string, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	return storeErr(s.Repo.SetStatus(ctx, resumeID, status, s.Now()))
}

// SetDocumentURL records the rendered document link on a version.
func (s *Service) SetDocumentURL(ctx context.Context, resumeID string, versionType VersionType, url string) error {
	return storeErr(s.Repo.SetDocumentURL(ctx, resumeID, versionType, url, s.Now()))
}

// ListPendingReview returns in-review resumes then pending ones, oldest first.
func (s *Service) ListPendingReview(ctx context.Context, limit int) ([]ReviewItem, error) {
	if limit <= 0 || limit > PendingReviewLimit {
		limit = PendingReviewLimit
	}
	items, err := s.Repo.ListPendingReview(ctx, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}

// storeErr passes domain errors through and tags everything else as a store failure.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrVersionLocked),
		errors.Is(err, ErrInvalidVersionType),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrEmptyContent),
		errors.Is(err, ErrStore),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}
