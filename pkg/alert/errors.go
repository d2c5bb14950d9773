package alert

import (
	"errors"
	"fmt"
)

var (
	// ErrChannelUnsupported is returned by a sink whose hardware is absent,
	// e.g. vibration on a laptop. The dispatcher logs and skips it.
	ErrChannelUnsupported = errors.New("alert: channel unsupported on this device")

	// ErrNotConnected is returned by RemoteSink when the companion endpoint
	// cannot be reached.
	ErrNotConnected = errors.New("alert: remote not connected")
)

// ChannelError is a failure on a single output channel.
type ChannelError struct {
	Channel Channel
	Err     error
}

// Error implements the error interface.
func (e *ChannelError) Error() string {
	return fmt.Sprintf("alert [%s]: %v", e.Channel, e.Err)
}

// Unwrap returns the underlying error.
func (e *ChannelError) Unwrap() error {
	return e.Err
}
