package camera

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned when the camera cannot be opened:
	// permission denied, device busy or missing. It is not retried.
	ErrUnavailable = errors.New("camera: sensor unavailable")

	// ErrAlreadyStarted is returned by Start on a running source.
	ErrAlreadyStarted = errors.New("camera: already started")
)

// DeviceError wraps a failure to open a specific device.
type DeviceError struct {
	Facing Facing
	Device int
	Err    error
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	return fmt.Sprintf("camera [%s/%d]: %v", e.Facing, e.Device, e.Err)
}

// Unwrap returns the underlying error.
func (e *DeviceError) Unwrap() error {
	return e.Err
}
