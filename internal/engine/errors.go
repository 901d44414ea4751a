package engine

import "errors"

var (
	// ErrNotFound is returned when an instance id does not exist.
	ErrNotFound = errors.New("instance not found")

	// ErrInvalidState is returned when a lifecycle action is not legal
	// from the instance's current status.
	ErrInvalidState = errors.New("invalid instance state for this action")
)
