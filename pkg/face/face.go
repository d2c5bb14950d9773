// Package face locates the driver's face and eye centres in camera frames.
package face

import (
	"context"
	"math"

	"github.com/teslashibe/cleargaze/pkg/camera"
)

// Point is a pixel coordinate.
type Point struct {
	X, Y float64
}

// Rect is a pixel bounding box (top-left origin).
type Rect struct {
	X, Y, W, H float64
}

// Area returns the area of the box in square pixels.
func (r Rect) Area() float64 {
	return r.W * r.H
}

// Observation is the result of locating a face in one frame.
// A nil *Observation means no face was found.
type Observation struct {
	Box        Rect
	LeftEye    Point   // Subject's left eye
	RightEye   Point   // Subject's right eye
	Confidence float64 // 0-1
}

// InterocularPx returns the distance between the eye centres in pixels.
func (o *Observation) InterocularPx() float64 {
	return math.Hypot(o.LeftEye.X-o.RightEye.X, o.LeftEye.Y-o.RightEye.Y)
}

// Locator finds the most prominent face in a frame.
//
// Implementations return (nil, nil) when no face is visible. Errors and
// timeouts are treated by callers as "no observation".
type Locator interface {
	Locate(ctx context.Context, frame camera.Frame) (*Observation, error)
}

// SelectBest picks the primary face from multiple candidates.
// Priority: confidence * 0.7 + relative area * 0.3 (the driver is usually the
// largest, clearest face in a cabin).
func SelectBest(obs []Observation) *Observation {
	if len(obs) == 0 {
		return nil
	}
	if len(obs) == 1 {
		return &obs[0]
	}

	maxArea := 0.0
	for _, o := range obs {
		if o.Box.Area() > maxArea {
			maxArea = o.Box.Area()
		}
	}

	bestScore := -1.0
	var best *Observation
	for i := range obs {
		score := obs[i].Confidence * 0.7
		if maxArea > 0 {
			score += (obs[i].Box.Area() / maxArea) * 0.3
		}
		if score > bestScore {
			bestScore = score
			best = &obs[i]
		}
	}
	return best
}
