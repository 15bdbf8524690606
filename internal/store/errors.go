package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store. Entity-specific variants wrap it so callers can match
	// either the generic or the specific error with errors.Is.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidEntity is returned when an entity fails validation or
	// references another entity that does not exist.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrRecordingNotFound indicates that the requested recording does
	// not exist in the store.
	ErrRecordingNotFound = fmt.Errorf("%w: recording", ErrNotFound)

	// ErrInsightNotFound indicates that no insight of the requested type
	// exists for the recording.
	ErrInsightNotFound = fmt.Errorf("%w: insight", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
