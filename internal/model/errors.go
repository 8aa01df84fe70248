package model

import "errors"

// Error kinds returned by the store and exchange packages. Every lifecycle
// failure wraps exactly one of these so callers can classify it.
var (
	// ErrNotFound means the referenced item, request or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the caller is not the owner or requester the
	// operation requires.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState means the transition was attempted from the wrong
	// lifecycle state, e.g. approving an already-approved request.
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict means a duplicate active request, a request for a locked
	// item, or a request for the caller's own item.
	ErrConflict = errors.New("conflict")
)
