package face

import (
	"context"
	"time"

	"github.com/teslashibe/cleargaze/pkg/camera"
)

// averageInterocularCm is used when no interocular constant is set.
const averageInterocularCm = 6.3

// SyntheticLocator turns camera.Synthetic frames into observations whose eye
// spacing matches the scripted distance under a pinhole camera model.
type SyntheticLocator struct {
	InterocularCm float64       // Defaults to the adult average
	FocalLengthPx float64       // Defaults to the focal length of camera.DefaultConfig
	Confidence    float64       // Reported confidence, defaults to 0.95
	Latency       time.Duration // Simulated inference time
}

// NewSyntheticLocator creates a locator for the given camera constants.
func NewSyntheticLocator(interocularCm, focalLengthPx float64) *SyntheticLocator {
	return &SyntheticLocator{
		InterocularCm: interocularCm,
		FocalLengthPx: focalLengthPx,
		Confidence:    0.95,
	}
}

// Locate decodes the scripted distance. Frames without a payload yield no face.
func (s *SyntheticLocator) Locate(ctx context.Context, frame camera.Frame) (*Observation, error) {
	if s.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.Latency):
		}
	}
	if frame.Format != camera.FormatSynthetic {
		return nil, ErrUnsupportedFormat
	}

	distance, ok := camera.DecodeSyntheticDistance(frame.Data)
	if !ok || distance <= 0 {
		return nil, nil
	}

	focal := s.FocalLengthPx
	if focal <= 0 {
		focal = camera.FocalLengthFromFOV(frame.Width, camera.DefaultConfig().HorizontalFOV)
	}
	interocular := s.InterocularCm
	if interocular <= 0 {
		interocular = averageInterocularCm
	}
	iod := interocular * focal / distance

	cx, cy := float64(frame.Width)/2, float64(frame.Height)/2
	confidence := s.Confidence
	if confidence == 0 {
		confidence = 0.95
	}

	return &Observation{
		Box:        Rect{X: cx - iod, Y: cy - iod, W: 2 * iod, H: 2.4 * iod},
		RightEye:   Point{X: cx - iod/2, Y: cy},
		LeftEye:    Point{X: cx + iod/2, Y: cy},
		Confidence: confidence,
	}, nil
}
