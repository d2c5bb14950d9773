// Package camera provides the frame source for a monitoring session.
package camera

import (
	"fmt"
	"math"
	"strings"
)

// Facing selects which physical sensor to open.
type Facing int

const (
	// Front is the user-facing (selfie) camera. Default for distance monitoring.
	Front Facing = iota
	// Back is the world-facing camera.
	Back
)

// String returns "front" or "back".
func (f Facing) String() string {
	if f == Back {
		return "back"
	}
	return "front"
}

// ParseFacing accepts "front" or "back" (case-insensitive).
func ParseFacing(s string) (Facing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "front", "":
		return Front, nil
	case "back", "rear":
		return Back, nil
	}
	return Front, fmt.Errorf("camera: unknown facing %q", s)
}

// Config holds camera capture parameters.
type Config struct {
	// === Sensor ===
	Facing Facing `json:"facing"`

	// Device overrides the OS device index. -1 uses the index for Facing
	// (front = 0, back = 1).
	Device int `json:"device"`

	// === Resolution ===
	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Target FPS

	// HorizontalFOV is the horizontal field of view in radians.
	// Used to derive a focal length when no calibration is available.
	HorizontalFOV float64 `json:"horizontal_fov"`

	// === Low light ===
	// Brightness adjustment (-1.0 to +1.0). 0 leaves the driver default.
	Brightness float64 `json:"brightness"`

	// ExposureValue is EV compensation in stops (-2.0 to +2.0).
	ExposureValue float64 `json:"exposure_value"`
}

// Sensor limits accepted by Validate.
const (
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns 640x480 at 30 FPS from the front camera.
// Face landmarks stay reliable at arm's length at this resolution and the
// locator cost stays well under one frame interval.
func DefaultConfig() Config {
	return Config{
		Facing:        Front,
		Device:        -1,
		Width:         640,
		Height:        480,
		Framerate:     30,
		HorizontalFOV: 70 * math.Pi / 180, // Typical phone/webcam front lens
	}
}

// DeviceIndex returns the OS device index to open.
func (c *Config) DeviceIndex() int {
	if c.Device >= 0 {
		return c.Device
	}
	if c.Facing == Back {
		return 1
	}
	return 0
}

// FocalLengthPx derives the focal length in pixels from the horizontal FOV.
func (c *Config) FocalLengthPx() float64 {
	return FocalLengthFromFOV(c.Width, c.HorizontalFOV)
}

// FocalLengthFromFOV converts a horizontal field of view into a focal length
// in pixels for an image widthPx wide. Returns 0 for unusable input.
func FocalLengthFromFOV(widthPx int, hfov float64) float64 {
	if widthPx <= 0 || hfov <= 0 || hfov >= math.Pi {
		return 0
	}
	return float64(widthPx) / 2 / math.Tan(hfov/2)
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Facing != Front && c.Facing != Back {
		errors = append(errors, "facing must be front or back")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between 160 and %d", MaxWidth))
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between 120 and %d", MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.HorizontalFOV < 0 || c.HorizontalFOV >= math.Pi {
		errors = append(errors, "horizontal_fov must be between 0 and pi radians")
	}
	if c.Brightness < -1.0 || c.Brightness > 1.0 {
		errors = append(errors, "brightness must be between -1.0 and 1.0")
	}
	if c.ExposureValue < -2.0 || c.ExposureValue > 2.0 {
		errors = append(errors, "exposure_value must be between -2.0 and 2.0")
	}

	return errors
}
