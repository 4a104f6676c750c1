package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resume-feedback/internal/shared/storage/object"
)

// Store keeps uploads, extracted text and email drafts under a directory.
type Store struct {
	baseDir string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) object.ObjectStore {
	return &Store{baseDir: baseDir}
}

func (s *Store) Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (string, int64, string, error) {
	key, err := object.UploadKey(ownerID, fileName)
	if err != nil {
		return "", 0, "", err
	}
	mimeType, body, err := object.Sniff(r)
	if err != nil {
		return "", 0, "", err
	}
	size, err := s.SaveWithKey(ctx, key, mimeType, body)
	if err != nil {
		return "", 0, "", err
	}
	return key, size, mimeType, nil
}

func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.path(storageKey)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

// SaveWithKey writes r to storageKey. The content type is not persisted on disk.
func (s *Store) SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	fullPath, err := s.path(storageKey)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", storageKey, err)
	}
	return written, nil
}

func (s *Store) path(storageKey string) (string, error) {
	clean, err := object.CleanKey(storageKey)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}
