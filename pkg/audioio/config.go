// Package audioio plays alert tones.
//
// This package supports multiple backends:
//   - aplay (Linux) - pipes PCM16 into alsa-utils' aplay
//   - Mock - CI/Testing without hardware
//
// The backend is selected automatically based on the platform,
// or can be explicitly specified via configuration.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto automatically selects the best available backend.
	BackendAuto Backend = "auto"
	// BackendAplay pipes raw PCM into the aplay command.
	BackendAplay Backend = "aplay"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	// Default: "auto" (selects best available for platform)
	Backend Backend `json:"backend"`

	// SampleRate is the output sample rate in Hz.
	// Default: 16000 (plenty for beeps)
	SampleRate int `json:"sample_rate"`

	// Channels is the number of audio channels.
	// Default: 1 (mono)
	Channels int `json:"channels"`

	// BufferDuration is the size of audio buffers.
	BufferDuration time.Duration `json:"buffer_duration"`

	// Device is the ALSA device passed to aplay -D.
	// Examples: "default", "plughw:1,0". Empty uses the system default.
	Device string `json:"device"`

	// Volume scales all tones (0.0 to 1.0).
	Volume float64 `json:"volume"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     16000,
		Channels:       1,
		BufferDuration: 20 * time.Millisecond,
		Device:         "",
		Volume:         0.6,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("volume must be between 0 and 1, got %v", c.Volume)
	}
	return nil
}

// BufferSize returns the number of samples per buffer.
func (c *Config) BufferSize() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}
