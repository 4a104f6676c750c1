package resumes

import (
	"context"
	"sort"
	"sync"
	"time"
)

type versionKey struct {
	resumeID    string
	versionType VersionType
}

// MemoryRepo stores resume versions in memory. It is safe for concurrent use.
type MemoryRepo struct {
	mu       sync.RWMutex
	byID     map[string]ResumeDocument
	byUser   map[string]string
	versions map[versionKey]ResumeDocument
	newID    func() string
}

// NewMemoryRepo returns an empty repo; newID allocates ids for derived versions.
func NewMemoryRepo(newID func() string) *MemoryRepo {
	return &MemoryRepo{
		byID:     make(map[string]ResumeDocument),
		byUser:   make(map[string]string),
		versions: make(map[versionKey]ResumeDocument),
		newID:    newID,
	}
}

func (r *MemoryRepo) UpdateUserVersion(ctx context.Context, userID string, fn UserVersionFunc) (ResumeDocument, error) {
	if err := ctx.Err(); err != nil {
		return ResumeDocument{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var existing *ResumeDocument
	if id, ok := r.byUser[userID]; ok {
		doc := cloneDocument(r.byID[id])
		existing = &doc
	}
	next, err := fn(existing)
	if err != nil {
		return ResumeDocument{}, err
	}
	next = cloneDocument(next)
	r.byID[next.ID] = next
	r.byUser[userID] = next.ID
	return cloneDocument(next), nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, resumeID string) (ResumeDocument, error) {
	if err := ctx.Err(); err != nil {
		return ResumeDocument{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.byID[resumeID]
	if !ok {
		return ResumeDocument{}, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (r *MemoryRepo) GetByUserID(ctx context.Context, userID string) (ResumeDocument, error) {
	if err := ctx.Err(); err != nil {
		return ResumeDocument{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[userID]
	if !ok {
		return ResumeDocument{}, ErrNotFound
	}
	return cloneDocument(r.byID[id]), nil
}

func (r *MemoryRepo) UpsertVersion(ctx context.Context, doc ResumeDocument) (ResumeDocument, error) {
	if err := ctx.Err(); err != nil {
		return ResumeDocument{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[doc.Metadata.ResumeID]; !ok {
		return ResumeDocument{}, ErrNotFound
	}
	key := versionKey{resumeID: doc.Metadata.ResumeID, versionType: doc.Metadata.VersionType}
	if existing, ok := r.versions[key]; ok {
		doc.ID = existing.ID
		doc.Metadata.CreatedAt = existing.Metadata.CreatedAt
	} else if doc.ID == "" {
		doc.ID = r.newID()
	}
	doc = cloneDocument(doc)
	r.versions[key] = doc
	return cloneDocument(doc), nil
}

func (r *MemoryRepo) GetVersion(ctx context.Context, resumeID string, versionType VersionType) (ResumeDocument, error) {
	if err := ctx.Err(); err != nil {
		return ResumeDocument{}, err
	}
	if versionType == VersionUser {
		return r.GetByID(ctx, resumeID)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.versions[versionKey{resumeID: resumeID, versionType: versionType}]
	if !ok {
		return ResumeDocument{}, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (r *MemoryRepo) ListVersions(ctx context.Context, resumeID string) ([]ResumeDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[resumeID]
	if !ok {
		return nil, ErrNotFound
	}
	out := []ResumeDocument{cloneDocument(user)}
	for _, vt := range versionTypes {
		if doc, ok := r.versions[versionKey{resumeID: resumeID, versionType: vt}]; ok {
			out = append(out, cloneDocument(doc))
		}
	}
	return out, nil
}

func (r *MemoryRepo) SetStatus(ctx context.Context, resumeID string, status Status, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.byID[resumeID]
	if !ok {
		return ErrNotFound
	}
	doc.Metadata.Status = status
	doc.Metadata.LastUpdated = at
	r.byID[resumeID] = doc
	return nil
}

func (r *MemoryRepo) SetDocumentURL(ctx context.Context, resumeID string, versionType VersionType, url string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if versionType == VersionUser {
		doc, ok := r.byID[resumeID]
		if !ok {
			return ErrNotFound
		}
		doc.Metadata.GoogleDocURL = url
		doc.Metadata.LastUpdated = at
		r.byID[resumeID] = doc
		return nil
	}
	key := versionKey{resumeID: resumeID, versionType: versionType}
	doc, ok := r.versions[key]
	if !ok {
		return ErrNotFound
	}
	doc.Metadata.GoogleDocURL = url
	doc.Metadata.LastUpdated = at
	r.versions[key] = doc
	return nil
}

func (r *MemoryRepo) ListPendingReview(ctx context.Context, limit int) ([]ReviewItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []ReviewItem
	for _, doc := range r.byID {
		if doc.Metadata.Status != StatusInReview && doc.Metadata.Status != StatusPending {
			continue
		}
		item := ReviewItem{
			ResumeID:       doc.ID,
			UserID:         doc.Metadata.UserID,
			Status:         doc.Metadata.Status,
			Industry:       doc.Metadata.Industry,
			SubmissionDate: doc.Metadata.CreatedAt,
		}
		if fb, ok := r.versions[versionKey{resumeID: doc.ID, versionType: VersionLLMFeedback}]; ok {
			item.GoogleDocURL = fb.Metadata.GoogleDocURL
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := reviewRank(items[i].Status), reviewRank(items[j].Status)
		if ri != rj {
			return ri < rj
		}
		return items[i].SubmissionDate.Before(items[j].SubmissionDate)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func reviewRank(s Status) int {
	if s == StatusInReview {
		return 0
	}
	return 1
}

func cloneDocument(doc ResumeDocument) ResumeDocument {
	doc.Content = cloneMap(doc.Content)
	doc.Metadata.ModelInfo = cloneMap(doc.Metadata.ModelInfo)
	return doc
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
