package object

import (
	"context"
	"io"
)

// ObjectStore saves and retrieves uploaded resumes, extracted text and email drafts.
type ObjectStore interface {
	// Save stores r under the owner's namespace with a random prefix and returns the generated key.
	Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	// SaveWithKey stores r at a caller-chosen key, overwriting any previous object.
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
