package rendering

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"resume-feedback/internal/shared/telemetry"
)

const googleDocMimeType = "application/vnd.google-apps.document"

// GoogleDocs creates a Google Doc in a Drive folder and fills it with feedback.
type GoogleDocs struct {
	Drive    *drive.Service
	Docs     *docs.Service
	FolderID string
	NewID    func() string
}

// NewGoogleDocs authenticates with a service-account key file.
func NewGoogleDocs(ctx context.Context, credentialsJSON []byte, folderID string) (*GoogleDocs, error) {
	cfg, err := google.JWTConfigFromJSON(credentialsJSON, drive.DriveFileScope, docs.DocumentsScope)
	if err != nil {
		return nil, fmt.Errorf("google service account: %w", err)
	}
	return NewGoogleDocsWithOptions(ctx, folderID, option.WithHTTPClient(cfg.Client(ctx)))
}

// NewGoogleDocsWithOptions builds the Drive and Docs clients from explicit client options.
func NewGoogleDocsWithOptions(ctx context.Context, folderID string, opts ...option.ClientOption) (*GoogleDocs, error) {
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}
	docsSvc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("docs client: %w", err)
	}
	return &GoogleDocs{
		Drive:    driveSvc,
		Docs:     docsSvc,
		FolderID: folderID,
		NewID:    uuid.NewString,
	}, nil
}

// Title returns "<purpose> - User <userID> - <8 hex chars>".
func (g *GoogleDocs) Title(userID, purpose string) string {
	if strings.TrimSpace(purpose) == "" {
		purpose = DefaultPurpose
	}
	id := strings.ReplaceAll(g.NewID(), "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s - User %s - %s", purpose, userID, id)
}

func (g *GoogleDocs) Render(ctx context.Context, userID string, tree map[string]any, purpose string) (string, error) {
	file, err := g.createFile(ctx, g.Title(userID, purpose))
	if err != nil {
		return "", err
	}

	requests := BuildRequests(tree)
	if len(requests) > 0 {
		_, err := g.Docs.Documents.BatchUpdate(file.Id, &docs.BatchUpdateDocumentRequest{Requests: requests}).
			Context(ctx).
			Do()
		if err != nil {
			g.discard(ctx, file.Id)
			return "", fmt.Errorf("docs batchUpdate: %w", err)
		}
	} else {
		telemetry.Warn("rendering.empty_document", map[string]any{"doc_id": file.Id})
	}

	telemetry.Info("rendering.document_created", map[string]any{
		"doc_id":   file.Id,
		"user_id":  userID,
		"requests": len(requests),
	})
	return file.WebViewLink, nil
}

func (g *GoogleDocs) createFile(ctx context.Context, title string) (*drive.File, error) {
	meta := &drive.File{Name: title, MimeType: googleDocMimeType}
	if g.FolderID != "" {
		meta.Parents = []string{g.FolderID}
	}
	file, err := g.Drive.Files.Create(meta).
		Fields("id", "webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("drive create: %w", err)
	}
	if file.Id == "" {
		return nil, errors.New("drive create: no document id returned")
	}
	return file, nil
}

// discard removes a document whose content could not be written. A failed
// delete leaves the id in the logs for manual cleanup.
func (g *GoogleDocs) discard(ctx context.Context, docID string) {
	err := g.Drive.Files.Delete(docID).SupportsAllDrives(true).Context(context.WithoutCancel(ctx)).Do()
	if err != nil {
		telemetry.Warn("rendering.orphaned_document", map[string]any{
			"doc_id": docID,
			"error":  telemetry.Truncate(err.Error(), 300),
		})
		return
	}
	telemetry.Info("rendering.document_discarded", map[string]any{"doc_id": docID})
}
