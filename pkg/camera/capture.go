package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Capture reads frames from a local camera through OpenCV.
type Capture struct {
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCapture creates a gocv-backed camera source.
func NewCapture(logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capture{logger: logger}
}

// Start opens the device selected by cfg and begins streaming frames.
func (c *Capture) Start(ctx context.Context, cfg Config) (<-chan Frame, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", errs)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return nil, ErrAlreadyStarted
	}

	device := cfg.DeviceIndex()
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, &DeviceError{Facing: cfg.Facing, Device: device, Err: fmt.Errorf("%w: %v", ErrUnavailable, err)}
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, &DeviceError{Facing: cfg.Facing, Device: device, Err: ErrUnavailable}
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	if cfg.Brightness != 0 {
		vc.Set(gocv.VideoCaptureBrightness, cfg.Brightness)
	}
	if cfg.ExposureValue != 0 {
		vc.Set(gocv.VideoCaptureExposure, cfg.ExposureValue)
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	frames := make(chan Frame)
	go c.run(ctx, vc, frames, c.done)

	c.logger.Info("camera started",
		"facing", cfg.Facing.String(),
		"device", device,
		"width", cfg.Width,
		"height", cfg.Height,
		"fps", cfg.Framerate)

	return frames, nil
}

func (c *Capture) run(ctx context.Context, vc *gocv.VideoCapture, out chan<- Frame, done chan<- struct{}) {
	defer close(done)
	defer close(out)
	defer vc.Close()

	img := gocv.NewMat()
	defer img.Close()

	var seq uint64
	misses := 0
	for {
		if ctx.Err() != nil {
			return
		}
		if ok := vc.Read(&img); !ok || img.Empty() {
			misses++
			if misses%30 == 1 {
				c.logger.Debug("camera read returned no frame", "misses", misses)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}
		misses = 0
		seq++

		frame := Frame{
			Seq:       seq,
			Timestamp: time.Now(),
			Width:     img.Cols(),
			Height:    img.Rows(),
			Format:    FormatBGR,
			Data:      img.ToBytes(),
		}

		select {
		case out <- frame:
		case <-ctx.Done():
			return
		}
	}
}

// Stop releases the device and waits for the read loop to exit.
func (c *Capture) Stop() error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	c.logger.Info("camera stopped")
	return nil
}
