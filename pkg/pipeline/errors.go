package pipeline

import "errors"

var (
	// ErrSessionNotFound is returned for an unknown or already stopped handle.
	ErrSessionNotFound = errors.New("pipeline: session not found")

	// ErrManagerClosed is returned by Start after Close.
	ErrManagerClosed = errors.New("pipeline: manager closed")
)
