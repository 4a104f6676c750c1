package rendering

import (
	"context"
	"errors"
)

// DefaultPurpose prefixes the title of feedback documents.
const DefaultPurpose = "Reporte_de_retroalimentación v1"

// ErrNotConfigured is returned by Noop so callers record the render as failed.
var ErrNotConfigured = errors.New("document rendering not configured")

// Renderer publishes a feedback tree as a shareable document and returns its URL.
type Renderer interface {
	Render(ctx context.Context, userID string, tree map[string]any, purpose string) (string, error)
}

// Noop is used when no rendering backend is configured.
type Noop struct{}

func (Noop) Render(ctx context.Context, userID string, tree map[string]any, purpose string) (string, error) {
	return "", ErrNotConfigured
}
