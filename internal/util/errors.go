package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates an update or reference to a record that does not exist
	ErrNotFound = errors.New("not found")

	// ErrConstraint indicates a uniqueness or key violation on insert
	ErrConstraint = errors.New("constraint violation")

	// ErrProcessing indicates an image decode/encode or pipeline startup failure
	ErrProcessing = errors.New("image processing failed")

	// ErrStorage indicates a transaction commit failure on otherwise valid input
	ErrStorage = errors.New("storage failure")

	// ErrFormat indicates a malformed or incomplete backup document
	ErrFormat = errors.New("invalid backup format")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
