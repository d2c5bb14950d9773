package guidance

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidCalibration is returned when the focal length or the
	// interocular constant is unset, non-positive or not a number.
	// Sessions keep running but never leave Searching.
	ErrInvalidCalibration = errors.New("guidance: invalid calibration")

	// ErrInvalidMeasurement is returned by calibration helpers when the
	// reference measurement cannot be used.
	ErrInvalidMeasurement = errors.New("guidance: invalid measurement")
)

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("guidance: invalid %s: %s", e.Field, e.Message)
}

// CalibrationError carries the offending calibration field.
type CalibrationError struct {
	Field string
	Value float64
}

// Error implements the error interface.
func (e *CalibrationError) Error() string {
	return fmt.Sprintf("guidance: invalid calibration: %s=%v", e.Field, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidCalibration.
func (e *CalibrationError) Unwrap() error {
	return ErrInvalidCalibration
}
