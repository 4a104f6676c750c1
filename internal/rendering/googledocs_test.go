package rendering

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type fakeGoogle struct {
	mu        sync.Mutex
	created   map[string]any
	batch     map[string]any
	deleted   []string
	batchCode int
	driveCode int
}

func (f *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, _ := io.ReadAll(r.Body)
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/drive/files":
		if f.driveCode != 0 {
			http.Error(w, `{"error":{"code":403,"message":"denied"}}`, f.driveCode)
			return
		}
		if r.URL.Query().Get("fields") != "id,webViewLink" {
			http.Error(w, "unexpected fields "+r.URL.Query().Get("fields"), http.StatusBadRequest)
			return
		}
		_ = json.Unmarshal(body, &f.created)
		_, _ = w.Write([]byte(`{"id":"doc-1","webViewLink":"https://docs.google.com/document/d/doc-1/edit"}`))
	case r.Method == http.MethodPost && r.URL.Path == "/docs/v1/documents/doc-1:batchUpdate":
		if f.batchCode != 0 {
			http.Error(w, `{"error":{"code":400,"message":"bad request"}}`, f.batchCode)
			return
		}
		_ = json.Unmarshal(body, &f.batch)
		_, _ = w.Write([]byte(`{"documentId":"doc-1"}`))
	case r.Method == http.MethodDelete && r.URL.Path == "/drive/files/doc-1":
		f.deleted = append(f.deleted, "doc-1")
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func newTestDocs(t *testing.T, fake *fakeGoogle) *GoogleDocs {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	g, err := NewGoogleDocsWithOptions(ctx, "folder-1", option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/drive/"))
	if err != nil {
		t.Fatalf("NewGoogleDocsWithOptions: %v", err)
	}
	docsOnly, err := NewGoogleDocsWithOptions(ctx, "folder-1", option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/docs/"))
	if err != nil {
		t.Fatalf("NewGoogleDocsWithOptions: %v", err)
	}
	g.Docs = docsOnly.Docs
	g.NewID = func() string { return "0123abcd-ef45-6789" }
	return g
}

func TestGoogleDocsRender(t *testing.T) {
	fake := &fakeGoogle{}
	g := newTestDocs(t, fake)

	url, err := g.Render(context.Background(), "user-1", map[string]any{
		"sections": map[string]any{"summary": map[string]any{"feedback": "ok"}},
	}, "")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if url != "https://docs.google.com/document/d/doc-1/edit" {
		t.Fatalf("unexpected url %s", url)
	}
	if fake.created["name"] != "Reporte_de_retroalimentación v1 - User user-1 - 0123abcd" {
		t.Fatalf("unexpected title %v", fake.created["name"])
	}
	if fake.created["mimeType"] != googleDocMimeType {
		t.Fatalf("unexpected mime type %v", fake.created["mimeType"])
	}
	if parents, _ := fake.created["parents"].([]any); len(parents) != 1 || parents[0] != "folder-1" {
		t.Fatalf("unexpected parents %v", fake.created["parents"])
	}
	if reqs, _ := fake.batch["requests"].([]any); len(reqs) != 5 {
		t.Fatalf("expected 5 batch requests, got %v", fake.batch["requests"])
	}
	if len(fake.deleted) != 0 {
		t.Fatalf("document should be kept, deleted %v", fake.deleted)
	}
}

func TestGoogleDocsRenderSurfacesAPIError(t *testing.T) {
	g := newTestDocs(t, &fakeGoogle{driveCode: http.StatusForbidden})

	_, err := g.Render(context.Background(), "user-1", map[string]any{}, "purpose")
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 googleapi error, got %v", err)
	}
}

func TestGoogleDocsRenderDiscardsDocumentWhenWriteFails(t *testing.T) {
	fake := &fakeGoogle{batchCode: http.StatusBadRequest}
	g := newTestDocs(t, fake)

	_, err := g.Render(context.Background(), "user-1", map[string]any{
		"summary": map[string]any{"feedback": "ok"},
	}, "")
	if err == nil {
		t.Fatalf("expected batchUpdate error")
	}
	if len(fake.deleted) != 1 || fake.deleted[0] != "doc-1" {
		t.Fatalf("expected doc-1 to be deleted, got %v", fake.deleted)
	}
}

func TestNoopRendererFails(t *testing.T) {
	if _, err := (Noop{}).Render(context.Background(), "u", nil, ""); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
