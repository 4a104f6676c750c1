package resumes

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestService() *Service {
	var n int
	nextID := func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &Service{
		Repo: NewMemoryRepo(nextID),
		Now: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
		NewID: nextID,
	}
}

func content(summary string) map[string]any {
	return map[string]any{"summary": summary, "skills": map[string]any{"hard_skills": []any{"Go"}}}
}

func TestUserVersionCompletionLock(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	id1, err := svc.CreateOrUpdateUserVersion(ctx, "user-1", content("first"), UserVersionInput{})
	if err != nil {
		t.Fatalf("first write: %v", err)
	}
	doc, _ := svc.Fetch(ctx, id1)
	if doc.Metadata.IsComplete {
		t.Fatalf("new user version should start incomplete")
	}
	if doc.Metadata.Status != StatusPending || doc.Metadata.ResumeID != id1 {
		t.Fatalf("unexpected metadata: %+v", doc.Metadata)
	}

	id2, err := svc.CreateOrUpdateUserVersion(ctx, "user-1", content("second"), UserVersionInput{})
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	if id2 != id1 {
		t.Fatalf("expected same resume id, got %s and %s", id1, id2)
	}
	doc, _ = svc.Fetch(ctx, id1)
	if !doc.Metadata.IsComplete || doc.Content["summary"] != "second" {
		t.Fatalf("expected overwritten and complete, got %+v", doc)
	}

	_, err = svc.CreateOrUpdateUserVersion(ctx, "user-1", content("third"), UserVersionInput{})
	if !errors.Is(err, ErrVersionLocked) {
		t.Fatalf("expected ErrVersionLocked, got %v", err)
	}
	doc, _ = svc.Fetch(ctx, id1)
	if doc.Content["summary"] != "second" {
		t.Fatalf("locked version must not change, got %v", doc.Content["summary"])
	}
}

func TestUserVersionCreatedComplete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	complete := true

	id, err := svc.CreateOrUpdateUserVersion(ctx, "user-2", content("a"), UserVersionInput{IsComplete: &complete, Industry: "tech"})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, _ := svc.FetchByUser(ctx, "user-2")
	if doc.ID != id || !doc.Metadata.IsComplete || doc.Metadata.Industry != "tech" {
		t.Fatalf("unexpected doc: %+v", doc)
	}
	if _, err := svc.CreateOrUpdateUserVersion(ctx, "user-2", content("b"), UserVersionInput{}); !errors.Is(err, ErrVersionLocked) {
		t.Fatalf("expected ErrVersionLocked, got %v", err)
	}
}

func TestUserVersionRejectsEmptyContent(t *testing.T) {
	svc := newTestService()
	if _, err := svc.CreateOrUpdateUserVersion(context.Background(), "u", nil, UserVersionInput{}); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestDerivedVersionLastWriteWins(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	resumeID, _ := svc.CreateOrUpdateUserVersion(ctx, "user-1", content("base"), UserVersionInput{})

	v1, err := svc.CreateDerivedVersion(ctx, resumeID, VersionLLMFeedback, map[string]any{"n": 1}, DerivedVersionInput{})
	if err != nil {
		t.Fatalf("first derived: %v", err)
	}
	v2, err := svc.CreateDerivedVersion(ctx, resumeID, VersionLLMFeedback, map[string]any{"n": 2}, DerivedVersionInput{IsComplete: true})
	if err != nil {
		t.Fatalf("second derived: %v", err)
	}
	if v1 != v2 {
		t.Fatalf("expected stable version id, got %s and %s", v1, v2)
	}
	doc, err := svc.FetchVersion(ctx, resumeID, VersionLLMFeedback)
	if err != nil {
		t.Fatalf("FetchVersion: %v", err)
	}
	if doc.Content["n"] != 2 || doc.Metadata.UserID != "user-1" || !doc.Metadata.IsComplete {
		t.Fatalf("unexpected derived version: %+v", doc)
	}

	versions, err := svc.ListVersions(ctx, resumeID)
	if err != nil || len(versions) != 2 {
		t.Fatalf("expected user + llm_feedback versions, got %d err=%v", len(versions), err)
	}
}

func TestDerivedVersionErrors(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	resumeID, _ := svc.CreateOrUpdateUserVersion(ctx, "user-1", content("base"), UserVersionInput{})

	tests := []struct {
		name     string
		resumeID string
		vt       VersionType
		want     error
	}{
		{name: "missing parent", resumeID: "nope", vt: VersionHR, want: ErrNotFound},
		{name: "invalid type", resumeID: resumeID, vt: "draft", want: ErrInvalidVersionType},
		{name: "user type", resumeID: resumeID, vt: VersionUser, want: ErrInvalidVersionType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateDerivedVersion(ctx, tt.resumeID, tt.vt, map[string]any{"x": 1}, DerivedVersionInput{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestListPendingReviewOrdering(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a, _ := svc.CreateOrUpdateUserVersion(ctx, "a", content("a"), UserVersionInput{})
	b, _ := svc.CreateOrUpdateUserVersion(ctx, "b", content("b"), UserVersionInput{})
	c, _ := svc.CreateOrUpdateUserVersion(ctx, "c", content("c"), UserVersionInput{})
	d, _ := svc.CreateOrUpdateUserVersion(ctx, "d", content("d"), UserVersionInput{})

	if err := svc.SetStatus(ctx, c, StatusInReview); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := svc.SetStatus(ctx, d, StatusReviewed); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if _, err := svc.CreateDerivedVersion(ctx, a, VersionLLMFeedback, map[string]any{"x": 1}, DerivedVersionInput{}); err != nil {
		t.Fatalf("derived: %v", err)
	}
	if err := svc.SetDocumentURL(ctx, a, VersionLLMFeedback, "https://docs.example/a"); err != nil {
		t.Fatalf("SetDocumentURL: %v", err)
	}

	items, err := svc.ListPendingReview(ctx, 0)
	if err != nil {
		t.Fatalf("ListPendingReview: %v", err)
	}
	got := make([]string, len(items))
	for i, it := range items {
		got[i] = it.ResumeID
	}
	want := []string{c, a, b}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("got order %v want %v", got, want)
	}
	if items[1].GoogleDocURL != "https://docs.example/a" {
		t.Fatalf("expected doc url on item, got %+v", items[1])
	}
}

func TestSetStatusValidation(t *testing.T) {
	svc := newTestService()
	if err := svc.SetStatus(context.Background(), "x", "done"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if err := svc.SetStatus(context.Background(), "missing", StatusReviewed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type failingRepo struct{ Repo }

func (failingRepo) GetByID(ctx context.Context, resumeID string) (ResumeDocument, error) {
	return ResumeDocument{}, errors.New("connection refused")
}

func TestStoreErrorsAreTagged(t *testing.T) {
	svc := newTestService()
	svc.Repo = failingRepo{Repo: svc.Repo}
	_, err := svc.Fetch(context.Background(), "x")
	if !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}
