package analyses

import "errors"

var (
	// ErrMissingID is returned when an analysis request names no CV.
	ErrMissingID = errors.New("missing cv id")
	// ErrEmptyUpload is returned when a direct upload carries no bytes.
	ErrEmptyUpload = errors.New("empty file uploaded")
)

const (
	ErrorCodeValidation       = "validation_error"
	ErrorCodeNotFound         = "not_found"
	ErrorCodeExtractionFailed = "extraction_failed"
	ErrorCodeTooLarge         = "too_large"
	ErrorCodeInternal         = "internal_error"
)
