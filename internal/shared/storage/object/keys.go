package object

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"
)

// Key namespaces inside a store.
const (
	UploadsPrefix = "resumes"
	DraftsPrefix  = "drafts"
)

const maxFileNameLen = 128

// ErrInvalidKey is returned for keys that are absolute or escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// UploadKey builds resumes/<owner hash>/<random>_<file name> for a new upload.
func UploadKey(ownerID, fileName string) (string, error) {
	name, err := sanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	return path.Join(UploadsPrefix, OwnerKey(ownerID), randomID()+"_"+name), nil
}

// DraftKey builds drafts/<owner hash>/<draftID>.eml.
func DraftKey(ownerID, draftID string) string {
	return path.Join(DraftsPrefix, OwnerKey(ownerID), draftID+".eml")
}

// OwnerKey hashes a user id into a path-safe directory name so raw ids never appear in keys.
func OwnerKey(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])
}

// sanitizeFileName flattens separators, drops control characters and keeps the extension
// when truncating long names.
func sanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if s == "" {
		return "", errors.New("invalid file name")
	}
	if len(s) > maxFileNameLen {
		ext := path.Ext(s)
		if len(ext) > 16 {
			ext = ""
		}
		s = strings.ToValidUTF8(s[:maxFileNameLen-len(ext)], "") + ext
	}
	return s, nil
}

// CleanKey normalizes a slash-separated key and rejects traversal.
func CleanKey(key string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(strings.TrimSpace(key), "\\", "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// Sniff detects the content type from the first 512 bytes and returns a reader
// that still yields the whole stream.
func Sniff(r io.Reader) (string, io.Reader, error) {
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	return http.DetectContentType(head[:n]), io.MultiReader(bytes.NewReader(head[:n]), r), nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
