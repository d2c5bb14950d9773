package camera

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// Script returns the face distance at a point in the run.
// present == false means no face is visible.
type Script func(elapsed time.Duration) (distanceCm float64, present bool)

// Synthetic is a camera that emits scripted frames at the configured rate.
// Frames carry FormatSynthetic payloads understood by face.SyntheticLocator.
type Synthetic struct {
	script   Script
	startErr error

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSynthetic creates a scripted source. A nil script uses DriveScript.
func NewSynthetic(script Script) *Synthetic {
	if script == nil {
		script = DriveScript
	}
	return &Synthetic{script: script}
}

// FailWith makes the next Start return err, simulating a denied or busy sensor.
func (s *Synthetic) FailWith(err error) *Synthetic {
	s.startErr = err
	return s
}

// Start begins emitting frames.
func (s *Synthetic) Start(ctx context.Context, cfg Config) (<-chan Frame, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", errs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return nil, &DeviceError{Facing: cfg.Facing, Device: cfg.DeviceIndex(), Err: s.startErr}
	}
	if s.cancel != nil {
		return nil, ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	frames := make(chan Frame)
	go s.run(ctx, cfg, frames, s.done)
	return frames, nil
}

func (s *Synthetic) run(ctx context.Context, cfg Config, out chan<- Frame, done chan<- struct{}) {
	defer close(done)
	defer close(out)

	ticker := time.NewTicker(time.Second / time.Duration(cfg.Framerate))
	defer ticker.Stop()

	start := time.Now()
	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			seq++
			frame := Frame{
				Seq:       seq,
				Timestamp: now,
				Width:     cfg.Width,
				Height:    cfg.Height,
				Format:    FormatSynthetic,
			}
			if d, ok := s.script(now.Sub(start)); ok {
				frame.Data = EncodeSyntheticDistance(d)
			}
			select {
			case out <- frame:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Stop ends the stream and waits for the emitter to exit.
func (s *Synthetic) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// ConstantScript keeps the face at a fixed distance.
func ConstantScript(distanceCm float64) Script {
	return func(time.Duration) (float64, bool) { return distanceCm, true }
}

// DriveScript is a 40 second loop: settle at the ideal distance, lean in,
// recover, drift back, look away for a few seconds, return.
func DriveScript(elapsed time.Duration) (float64, bool) {
	t := math.Mod(elapsed.Seconds(), 40)
	wobble := 0.8 * math.Sin(t*2.1)
	switch {
	case t < 8:
		return 30 + wobble, true
	case t < 14:
		return 30 - (t-8)*2.5 + wobble, true // down to ~15 cm
	case t < 18:
		return 16 + wobble, true
	case t < 22:
		return 30 + wobble, true
	case t < 28:
		return 30 + (t-22)*2.5 + wobble, true // out to ~45 cm
	case t < 32:
		return 0, false
	default:
		return 30 + wobble, true
	}
}
