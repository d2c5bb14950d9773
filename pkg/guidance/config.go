package guidance

import (
	"math"
	"time"
)

// Config is the per-session configuration snapshot.
// A session copies it at start; changing settings means starting a new session.
type Config struct {
	// Target band
	IdealDistanceCm float64 `json:"ideal_distance_cm"`
	ToleranceCm     float64 `json:"tolerance_cm"`

	// Estimation
	MinFaceConfidence float64 `json:"min_face_confidence"` // Observations below this yield no sample

	// Smoothing and debounce
	SmoothingWindow time.Duration `json:"smoothing_window"` // Trailing median window
	DebounceSamples int           `json:"debounce_samples"` // Consecutive agreeing estimates before a transition
	LostGrace       time.Duration `json:"lost_grace"`       // No estimate for this long -> Lost

	// Alerts
	AlertCooldown time.Duration `json:"alert_cooldown"`
	Channels      Channels      `json:"channels"`
}

// DefaultConfig returns the recommended configuration.
// The target band is 30 cm ± 5 cm.
func DefaultConfig() Config {
	return Config{
		IdealDistanceCm: 30,
		ToleranceCm:     5,

		MinFaceConfidence: 0.6,

		SmoothingWindow: time.Second,
		DebounceSamples: 3,
		LostGrace:       1500 * time.Millisecond,

		AlertCooldown: 3 * time.Second,
		Channels:      AllChannels(),
	}
}

// RelaxedConfig tolerates more drift and alerts less often.
func RelaxedConfig() Config {
	cfg := DefaultConfig()
	cfg.ToleranceCm = 8
	cfg.DebounceSamples = 5
	cfg.LostGrace = 3 * time.Second
	cfg.AlertCooldown = 6 * time.Second
	return cfg
}

// StrictConfig reacts faster with a narrower band.
func StrictConfig() Config {
	cfg := DefaultConfig()
	cfg.ToleranceCm = 3
	cfg.SmoothingWindow = 600 * time.Millisecond
	cfg.DebounceSamples = 2
	cfg.LostGrace = time.Second
	cfg.AlertCooldown = 2 * time.Second
	return cfg
}

// Preset returns a named configuration, or false if the name is unknown.
func Preset(name string) (Config, bool) {
	switch name {
	case "default", "":
		return DefaultConfig(), true
	case "relaxed":
		return RelaxedConfig(), true
	case "strict":
		return StrictConfig(), true
	}
	return Config{}, false
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if !positive(c.IdealDistanceCm) {
		return &ConfigError{Field: "ideal_distance_cm", Message: "must be positive"}
	}
	if c.ToleranceCm < 0 || math.IsNaN(c.ToleranceCm) {
		return &ConfigError{Field: "tolerance_cm", Message: "must not be negative"}
	}
	if c.ToleranceCm >= c.IdealDistanceCm {
		return &ConfigError{Field: "tolerance_cm", Message: "must be smaller than ideal_distance_cm"}
	}
	if c.MinFaceConfidence < 0 || c.MinFaceConfidence > 1 || math.IsNaN(c.MinFaceConfidence) {
		return &ConfigError{Field: "min_face_confidence", Message: "must be between 0 and 1"}
	}
	if c.SmoothingWindow <= 0 {
		return &ConfigError{Field: "smoothing_window", Message: "must be positive"}
	}
	if c.DebounceSamples < 1 {
		return &ConfigError{Field: "debounce_samples", Message: "must be at least 1"}
	}
	if c.LostGrace <= 0 {
		return &ConfigError{Field: "lost_grace", Message: "must be positive"}
	}
	if c.AlertCooldown < 0 {
		return &ConfigError{Field: "alert_cooldown", Message: "must not be negative"}
	}
	return nil
}

// Classify maps a distance onto TooClose, TooFar or Ideal.
func (c *Config) Classify(distanceCm float64) State {
	switch {
	case distanceCm < c.IdealDistanceCm-c.ToleranceCm:
		return TooClose
	case distanceCm > c.IdealDistanceCm+c.ToleranceCm:
		return TooFar
	default:
		return Ideal
	}
}

// DefaultInterocularCm is the adult population-average distance between
// eye centres.
const DefaultInterocularCm = 6.3

// Calibration holds the per-device constants of the pinhole model.
type Calibration struct {
	InterocularCm float64 `json:"interocular_cm"`
	FocalLengthPx float64 `json:"focal_length_px"`
}

// Validate returns a *CalibrationError wrapping ErrInvalidCalibration
// when either constant is unusable.
func (c Calibration) Validate() error {
	if !positive(c.InterocularCm) {
		return &CalibrationError{Field: "interocular_cm", Value: c.InterocularCm}
	}
	if !positive(c.FocalLengthPx) {
		return &CalibrationError{Field: "focal_length_px", Value: c.FocalLengthPx}
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
