package services

import (
	"errors"
	"fmt"

	"github.com/formhive/formhive/internal/models"
)

var (
	// ErrFormNotFound means the referenced form id does not exist.
	ErrFormNotFound = errors.New("form not found")
	// ErrSubmissionNotFound means the referenced submission id does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrFormNotPublished means a submission targeted a draft form.
	ErrFormNotPublished = errors.New("form is not published")
	// ErrSubmissionLimit means the form's configured submission limit has
	// been reached.
	ErrSubmissionLimit = errors.New("submission limit reached")
)

// ValidationError aggregates every failing field of a request. It is a
// client error; callers use Details to highlight specific inputs.
type ValidationError struct {
	Details []models.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Details))
}

// PersistenceError marks a failed read or write against the underlying
// store. It is a server error, safe to retry with backoff, and must never be
// reported in the 400-class validation shape.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
