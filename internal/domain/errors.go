package domain

import "errors"

// Sentinel errors shared across services and repositories. Services compare
// with errors.Is, so repositories may wrap these with context.
var (
	// ErrNotFound is returned when a requested entity does not exist, or
	// when the caller is not allowed to know that it exists.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller may see the entity but not
	// perform the operation on it.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState is returned when an operation does not apply to the
	// entity's current lifecycle state.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrInvalidSchedule is returned when an event date violates a lead-time
	// requirement.
	ErrInvalidSchedule = errors.New("event date violates schedule constraints")

	// ErrConflict is returned on uniqueness violations, such as a duplicate
	// participation request.
	ErrConflict = errors.New("conflict")

	// ErrCapacityExceeded is returned when an admission would exceed the
	// event's participant limit.
	ErrCapacityExceeded = errors.New("participant limit reached")

	// ErrInvalidInput is returned for malformed operation input.
	ErrInvalidInput = errors.New("invalid input")
)
