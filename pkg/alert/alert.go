// Package alert turns guidance state changes into rate-limited driver
// notifications on the sound, vibration and visual channels.
package alert

import (
	"context"
	"time"

	"github.com/teslashibe/cleargaze/pkg/guidance"
)

// Channel names an output modality.
type Channel string

const (
	ChannelSound     Channel = "sound"
	ChannelVibration Channel = "vibration"
	ChannelVisual    Channel = "visual"
)

// Enabled reports whether ch is switched on in c.
func Enabled(c guidance.Channels, ch Channel) bool {
	switch ch {
	case ChannelSound:
		return c.Sound
	case ChannelVibration:
		return c.Vibration
	case ChannelVisual:
		return c.Visual
	}
	return false
}

// Notification is what a sink presents to the driver.
type Notification struct {
	Session    string         `json:"session,omitempty"`
	State      guidance.State `json:"state"`
	Previous   guidance.State `json:"previous"`
	DistanceCm float64        `json:"distance_cm,omitempty"`
	Message    string         `json:"message"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Messages shown for each state.
var messages = map[guidance.State]string{
	guidance.Searching: "Looking for your face",
	guidance.TooClose:  "Too close, move back",
	guidance.TooFar:    "Too far, move closer",
	guidance.Ideal:     "Good distance",
	guidance.Lost:      "Face not detected, eyes on the road",
}

// Message returns the driver-facing text for a state.
func Message(s guidance.State) string {
	return messages[s]
}

// Sink presents a notification on one output.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, n Notification) error

// Notify calls f.
func (f SinkFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Outcome is the result of handing an event to the dispatcher.
type Outcome int

const (
	// Skipped means there was nothing to present: no state change, the
	// state was already announced, or every channel is off.
	Skipped Outcome = iota
	// Dispatched means a notification went out to the sinks.
	Dispatched
	// Suppressed means the cooldown was active; the state is remembered.
	Suppressed
)

func (o Outcome) String() string {
	switch o {
	case Dispatched:
		return "dispatched"
	case Suppressed:
		return "suppressed"
	}
	return "skipped"
}
