package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrDuplicateExternalUID means a booking with the same feed UID already
	// exists. The sync reconciler treats this as an already-imported event.
	ErrDuplicateExternalUID = errors.New("booking with this external UID already exists")
)
