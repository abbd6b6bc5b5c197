package chat

import "errors"

// Sentinel errors for session-manager operations, checked with errors.Is.
var (
	// ErrBusy indicates a completion is already in flight. Only one
	// conversation may be awaiting or streaming at a time.
	ErrBusy = errors.New("a completion is already in flight")

	// ErrEmptyInput indicates the submitted input was empty after trimming.
	ErrEmptyInput = errors.New("input must not be empty")

	// ErrSessionNotFound indicates the referenced session does not exist.
	ErrSessionNotFound = errors.New("session not found")
)
