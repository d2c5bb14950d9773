// Package guidance turns per-frame face observations into a stable
// distance classification.
//
// The package holds the three stateful-or-pure stages that sit between the
// face locator and the alert dispatcher:
//
//   - Estimator: face observation -> DistanceSample (pinhole model, pure)
//   - Smoother:  DistanceSample stream -> SmoothedEstimate (trailing median)
//   - Classifier: SmoothedEstimate stream -> State (debounced state machine)
//
// None of the types here are safe for concurrent use; a monitoring session
// owns one of each and drives them from a single goroutine.
package guidance

import (
	"fmt"
	"time"
)

// State is the guidance state shown to the driver.
type State int

const (
	// Searching is the initial state, before the first stable estimate.
	Searching State = iota
	// TooClose means the face is nearer than ideal - tolerance.
	TooClose
	// TooFar means the face is further than ideal + tolerance.
	TooFar
	// Ideal means the face is within the tolerance band.
	Ideal
	// Lost means no valid estimate arrived for longer than the grace period.
	Lost
)

var stateNames = [...]string{
	Searching: "searching",
	TooClose:  "too_close",
	TooFar:    "too_far",
	Ideal:     "ideal",
	Lost:      "lost",
}

// String returns the snake_case name of the state.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// IsClassified reports whether s is one of TooClose, TooFar or Ideal.
func (s State) IsClassified() bool {
	return s == TooClose || s == TooFar || s == Ideal
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseState parses the name produced by State.String.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return Searching, fmt.Errorf("guidance: unknown state %q", name)
}

// DistanceSample is one per-frame distance estimate.
type DistanceSample struct {
	Timestamp  time.Time `json:"timestamp"`
	DistanceCm float64   `json:"distance_cm"`
	Confidence float64   `json:"confidence"`
}

// SmoothedEstimate is the filtered distance over the trailing window.
type SmoothedEstimate struct {
	DistanceCm  float64   `json:"distance_cm"`
	SampleCount int       `json:"sample_count"`
	LastUpdate  time.Time `json:"last_update"`
}

// AlertEvent is emitted by the Classifier when the guidance state changes.
type AlertEvent struct {
	State         State     `json:"state"`
	Previous      State     `json:"previous"`
	Timestamp     time.Time `json:"timestamp"`
	IsStateChange bool      `json:"is_state_change"`

	// DistanceCm is the smoothed distance that triggered the change,
	// or 0 for Lost.
	DistanceCm float64 `json:"distance_cm"`
}

// Channels selects which alert outputs are enabled.
type Channels struct {
	Sound     bool `json:"sound"`
	Vibration bool `json:"vibration"`
	Visual    bool `json:"visual"`
}

// AllChannels enables every output.
func AllChannels() Channels {
	return Channels{Sound: true, Vibration: true, Visual: true}
}

// Any reports whether at least one channel is enabled.
func (c Channels) Any() bool {
	return c.Sound || c.Vibration || c.Visual
}
