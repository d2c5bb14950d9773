package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/teslashibe/cleargaze/pkg/camera"
	"github.com/teslashibe/cleargaze/pkg/guidance"
)

// CalibrationResult is the outcome of a calibration run.
type CalibrationResult struct {
	FocalLengthPx   float64
	MedianIODPx     float64
	Observations    int
	Frames          int
	KnownDistanceCm float64
}

// ErrNoFace is returned when calibration saw too few faces.
var ErrNoFace = errors.New("app: not enough face observations")

// Calibrate opens the camera, collects up to want face observations while
// the user holds still at knownCm, and derives the focal length from the
// median eye spacing.
func (a *App) Calibrate(ctx context.Context, knownCm float64, want int, timeout time.Duration) (CalibrationResult, error) {
	res := CalibrationResult{KnownDistanceCm: knownCm}
	if want <= 0 {
		want = 30
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var src camera.Source
	if a.config.Demo {
		src = camera.NewSynthetic(camera.ConstantScript(knownCm))
	} else {
		src = camera.NewCapture(a.logger)
	}
	frames, err := src.Start(ctx, a.config.Options.Camera)
	if err != nil {
		return res, err
	}
	defer src.Stop()

	minConf := a.config.Options.Guidance.MinFaceConfidence
	iods := make([]float64, 0, want)
	for len(iods) < want {
		var f camera.Frame
		var ok bool
		select {
		case <-ctx.Done():
		case f, ok = <-frames:
		}
		if !ok {
			break
		}
		res.Frames++
		obs, err := a.locator.Locate(ctx, f)
		if err != nil || obs == nil || obs.Confidence < minConf {
			continue
		}
		if iod := obs.InterocularPx(); iod > 0 {
			iods = append(iods, iod)
		}
	}
	res.Observations = len(iods)
	if len(iods) < (want+1)/2 {
		return res, fmt.Errorf("%w: %d of %d in %d frames", ErrNoFace, len(iods), want, res.Frames)
	}

	sort.Float64s(iods)
	mid := len(iods) / 2
	res.MedianIODPx = iods[mid]
	if len(iods)%2 == 0 {
		res.MedianIODPx = (iods[mid-1] + iods[mid]) / 2
	}

	res.FocalLengthPx, err = guidance.CalibrateFocalLength(res.MedianIODPx, knownCm, a.config.Options.Calibration.InterocularCm)
	return res, err
}
