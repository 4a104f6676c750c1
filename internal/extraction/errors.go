package extraction

import (
	"errors"
	"strings"
)

var (
	// ErrInputEmpty is returned when there is no resume text to extract from.
	ErrInputEmpty = errors.New("resume text is empty")
	// ErrValidation marks a model response whose shape does not match the schema.
	ErrValidation = errors.New("extraction validation failed")
)

// ValidationError lists the schema violations of a response.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
