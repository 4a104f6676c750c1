package llm

import (
	"context"
	"errors"
)

// Generator abstracts LLM providers: one prompt in, raw text out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	// ErrEmptyResponse is returned by providers when the model produced no text.
	ErrEmptyResponse = errors.New("llm returned empty response")
	// ErrNotImplemented is returned by the placeholder generator.
	ErrNotImplemented = errors.New("LLM not implemented")
)

// PlaceholderGenerator is used when no provider is configured.
type PlaceholderGenerator struct{}

// Generate returns ErrNotImplemented.
func (PlaceholderGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotImplemented
}
