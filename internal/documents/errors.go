package documents

import (
	"errors"

	"cv-backend/internal/extract"
)

var (
	// ErrNotFound is returned when a CV or its stored file does not exist.
	ErrNotFound = errors.New("cv not found")
	// ErrInvalidInput indicates a malformed id or upload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTooLarge is returned when a stored file exceeds the configured byte limit.
	ErrTooLarge = extract.ErrDocumentTooLarge
)
