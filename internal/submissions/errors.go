package submissions

import "errors"

var (
	// ErrNotFound is returned when a submission does not exist.
	ErrNotFound = errors.New("submission not found")

	// ErrInvalidSubmission is returned when a record fails validation before
	// persistence.
	ErrInvalidSubmission = errors.New("submission failed validation")
)
