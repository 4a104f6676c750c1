package resumes

import "errors"

var (
	ErrNotFound           = errors.New("resume not found")
	ErrVersionLocked      = errors.New("user version is complete and cannot be updated")
	ErrInvalidVersionType = errors.New("invalid version type")
	ErrInvalidStatus      = errors.New("invalid review status")
	ErrEmptyContent       = errors.New("resume content cannot be empty")
	// ErrStore wraps backend failures so callers can map them to 5xx.
	ErrStore = errors.New("resume store error")
)

const (
	ErrorCodeNotFound           = "RESUME_NOT_FOUND"
	ErrorCodeVersionLocked      = "VERSION_LOCKED"
	ErrorCodeInvalidVersionType = "INVALID_VERSION_TYPE"
	ErrorCodeInvalidStatus      = "INVALID_STATUS"
	ErrorCodeEmptyContent       = "EMPTY_CONTENT"
	ErrorCodeStore              = "STORE_ERROR"
)
