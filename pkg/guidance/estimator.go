package guidance

import (
	"math"
	"time"

	"github.com/teslashibe/cleargaze/pkg/face"
)

// Estimator converts face observations into distance samples with the
// pinhole model: distance = interocular_cm * focal_px / interocular_px.
type Estimator struct {
	cal           Calibration
	minConfidence float64
	calibrated    bool
}

// NewEstimator creates an estimator. When the calibration is invalid it still
// returns a usable estimator that never produces samples, together with an
// error wrapping ErrInvalidCalibration so the caller can warn.
func NewEstimator(cal Calibration, minConfidence float64) (*Estimator, error) {
	e := &Estimator{cal: cal, minConfidence: minConfidence}
	if err := cal.Validate(); err != nil {
		return e, err
	}
	e.calibrated = true
	return e, nil
}

// Calibrated reports whether the estimator can produce samples.
func (e *Estimator) Calibrated() bool {
	return e.calibrated
}

// Estimate returns a sample for obs, or false when obs is nil, below the
// confidence threshold, or geometrically unusable.
func (e *Estimator) Estimate(ts time.Time, obs *face.Observation) (DistanceSample, bool) {
	if !e.calibrated || obs == nil || obs.Confidence < e.minConfidence {
		return DistanceSample{}, false
	}
	d, ok := DistanceFromInterocular(obs.InterocularPx(), e.cal)
	if !ok {
		return DistanceSample{}, false
	}
	return DistanceSample{
		Timestamp:  ts,
		DistanceCm: d,
		Confidence: obs.Confidence,
	}, true
}

// DistanceFromInterocular applies the pinhole model to a measured eye spacing.
func DistanceFromInterocular(pixelIOD float64, cal Calibration) (float64, bool) {
	if !positive(pixelIOD) || cal.Validate() != nil {
		return 0, false
	}
	d := cal.InterocularCm * cal.FocalLengthPx / pixelIOD
	if !positive(d) {
		return 0, false
	}
	return d, true
}

// CalibrateFocalLength derives the focal length in pixels from one
// observation taken at a known distance.
func CalibrateFocalLength(pixelIOD, knownDistanceCm, interocularCm float64) (float64, error) {
	if !positive(pixelIOD) || !positive(knownDistanceCm) || !positive(interocularCm) {
		return 0, ErrInvalidMeasurement
	}
	f := pixelIOD * knownDistanceCm / interocularCm
	if math.IsInf(f, 0) {
		return 0, ErrInvalidMeasurement
	}
	return f, nil
}
