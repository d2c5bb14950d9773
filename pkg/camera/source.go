package camera

import "context"

// Source produces frames from a camera.
//
// Start opens the sensor and returns a stream of frames. The stream is closed
// when ctx is cancelled or Stop is called. Start returns an error wrapping
// ErrUnavailable when the sensor cannot be opened.
type Source interface {
	Start(ctx context.Context, cfg Config) (<-chan Frame, error)
	Stop() error
}
