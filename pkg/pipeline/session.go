// Package pipeline runs monitoring sessions: camera frames flow through the
// face locator, distance estimator, smoother and classifier, and state
// changes are handed to the alert worker.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/cleargaze/pkg/alert"
	"github.com/teslashibe/cleargaze/pkg/camera"
	"github.com/teslashibe/cleargaze/pkg/debug"
	"github.com/teslashibe/cleargaze/pkg/face"
	"github.com/teslashibe/cleargaze/pkg/guidance"
)

// Handle identifies a running session.
type Handle = uuid.UUID

// Options is the immutable snapshot a session runs with.
type Options struct {
	Guidance    guidance.Config      `json:"guidance"`
	Calibration guidance.Calibration `json:"calibration"`
	Camera      camera.Config        `json:"camera"`

	QueueCapacity int           `json:"queue_capacity"` // Frames held between camera and locator
	MaxInFlight   int           `json:"max_in_flight"`  // Concurrent locator calls
	LocateTimeout time.Duration `json:"locate_timeout"` // Per-frame locator deadline
	TickInterval  time.Duration `json:"tick_interval"`  // Housekeeping period
}

// DefaultOptions returns defaults for every pipeline setting.
func DefaultOptions() Options {
	cam := camera.DefaultConfig()
	return Options{
		Guidance: guidance.DefaultConfig(),
		Calibration: guidance.Calibration{
			InterocularCm: guidance.DefaultInterocularCm,
			FocalLengthPx: cam.FocalLengthPx(),
		},
		Camera:        cam,
		QueueCapacity: DefaultQueueCapacity,
		MaxInFlight:   2,
		LocateTimeout: 500 * time.Millisecond,
		TickInterval:  100 * time.Millisecond,
	}
}

func (o *Options) withDefaults() {
	d := DefaultOptions()
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = d.QueueCapacity
	}
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = d.MaxInFlight
	}
	if o.LocateTimeout <= 0 {
		o.LocateTimeout = d.LocateTimeout
	}
	if o.TickInterval <= 0 {
		o.TickInterval = d.TickInterval
	}
}

// Status is a point-in-time view of a session.
type Status struct {
	ID          Handle         `json:"id"`
	State       guidance.State `json:"state"`
	DistanceCm  float64        `json:"distance_cm"`
	HasEstimate bool           `json:"has_estimate"`
	Calibrated  bool           `json:"calibrated"`
	Facing      string         `json:"facing"`
	StartedAt   time.Time      `json:"started_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Metrics     Metrics        `json:"metrics"`
	Alerts      alert.Stats    `json:"alerts"`
}

// snapshot is what the processing goroutine publishes for readers.
type snapshot struct {
	state       guidance.State
	distance    float64
	hasEstimate bool
	updated     time.Time
}

type locateResult struct {
	frame   camera.Frame
	obs     *face.Observation
	err     error
	latency time.Duration
}

// Session is one monitoring run. Create sessions through Manager.
type Session struct {
	id      Handle
	opts    Options
	source  camera.Source
	locator face.Locator
	logger  *slog.Logger
	started time.Time

	queue      *FrameQueue
	estimator  *guidance.Estimator
	smoother   *guidance.Smoother
	classifier *guidance.Classifier
	dispatcher *alert.Dispatcher
	worker     *alert.Worker
	metrics    *MetricsCollector

	snap     atomic.Pointer[snapshot]
	onChange func(guidance.AlertEvent)

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func newSession(id Handle, opts Options, src camera.Source, loc face.Locator, sink alert.Sink, logger *slog.Logger) (*Session, error) {
	opts.withDefaults()
	if err := opts.Guidance.Validate(); err != nil {
		return nil, err
	}
	if errs := opts.Camera.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera config: %v", errs)
	}

	logger = logger.With("session", id.String())

	est, err := guidance.NewEstimator(opts.Calibration, opts.Guidance.MinFaceConfidence)
	if err != nil {
		// The session still runs; it will stay in Searching.
		logger.Warn("calibration invalid, distance cannot be estimated", "error", err)
	}

	dispatcher := alert.NewDispatcher(opts.Guidance, sink, logger).WithSession(id.String())

	s := &Session{
		id:         id,
		opts:       opts,
		source:     src,
		locator:    loc,
		logger:     logger,
		queue:      NewFrameQueue(opts.QueueCapacity),
		estimator:  est,
		smoother:   guidance.NewSmoother(opts.Guidance.SmoothingWindow),
		classifier: guidance.NewClassifier(opts.Guidance),
		dispatcher: dispatcher,
		worker:     alert.NewWorker(dispatcher, logger),
		metrics:    NewMetricsCollector(),
	}
	s.snap.Store(&snapshot{state: guidance.Searching})
	return s, nil
}

// start opens the camera and launches the session goroutines.
func (s *Session) start(ctx context.Context) error {
	// The session outlives the request that started it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	frames, err := s.source.Start(runCtx, s.opts.Camera)
	if err != nil {
		cancel()
		return err
	}
	s.cancel = cancel
	s.started = time.Now()

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		s.pump(frames)
	}()
	go func() {
		defer s.wg.Done()
		s.process(runCtx)
	}()
	go func() {
		defer s.wg.Done()
		s.worker.Run(runCtx)
	}()

	s.logger.Info("session started",
		"facing", s.opts.Camera.Facing.String(),
		"ideal_cm", s.opts.Guidance.IdealDistanceCm,
		"tolerance_cm", s.opts.Guidance.ToleranceCm,
		"calibrated", s.estimator.Calibrated())
	return nil
}

// pump moves camera frames into the queue. It never blocks on the consumer.
func (s *Session) pump(frames <-chan camera.Frame) {
	for f := range frames {
		dropped := s.queue.Push(f)
		s.metrics.FrameIn(dropped)
		if dropped {
			debug.FrameLog(s.logger, "frame dropped", "seq", f.Seq)
		}
	}
	s.logger.Debug("camera stream closed")
}

// process is the single goroutine that owns the estimator, smoother and
// classifier.
func (s *Session) process(ctx context.Context) {
	results := make(chan locateResult, s.opts.MaxInFlight)
	inFlight := 0

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	var locators sync.WaitGroup
	defer locators.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.queue.Ready():
		case r := <-results:
			inFlight--
			s.apply(r)
		case now := <-ticker.C:
			s.housekeep(now)
		}

		for inFlight < s.opts.MaxInFlight {
			f, ok := s.queue.Pop()
			if !ok {
				break
			}
			inFlight++
			locators.Add(1)
			go func() {
				defer locators.Done()
				results <- s.locate(ctx, f)
			}()
		}
	}
}

func (s *Session) locate(ctx context.Context, f camera.Frame) locateResult {
	ctx, cancel := context.WithTimeout(ctx, s.opts.LocateTimeout)
	defer cancel()

	start := time.Now()
	obs, err := s.locator.Locate(ctx, f)
	return locateResult{frame: f, obs: obs, err: err, latency: time.Since(start)}
}

// apply feeds one locator result through estimation and classification.
func (s *Session) apply(r locateResult) {
	now := time.Now()
	s.metrics.Located(r.obs != nil && r.err == nil, r.err, r.latency, now.Sub(r.frame.Timestamp))

	if r.err != nil {
		if !errors.Is(r.err, context.Canceled) {
			debug.FrameLog(s.logger, "locate failed", "seq", r.frame.Seq, "error", r.err)
		}
		s.housekeep(now)
		return
	}

	sample, ok := s.estimator.Estimate(r.frame.Timestamp, r.obs)
	if !ok {
		s.housekeep(now)
		return
	}

	accepted := s.smoother.Add(sample)
	s.metrics.Sample(accepted)
	if !accepted {
		debug.FrameLog(s.logger, "late sample rejected", "seq", r.frame.Seq)
		s.housekeep(now)
		return
	}

	debug.FrameLog(s.logger, "sample", "seq", r.frame.Seq, "distance_cm", sample.DistanceCm)
	est, ok := s.smoother.Estimate(now)
	s.classify(now, est, ok)
}

// housekeep advances the smoothing window and the Lost timer when there is
// no new sample. A non-empty window carries no new information and is not
// fed to the classifier again.
func (s *Session) housekeep(now time.Time) {
	est, ok := s.smoother.Estimate(now)
	if ok {
		s.publish(now, est, true)
		return
	}
	s.classify(now, est, false)
}

func (s *Session) classify(now time.Time, est guidance.SmoothedEstimate, ok bool) {
	ev, changed := s.classifier.Update(now, est, ok)
	s.publish(now, est, ok)
	if !changed {
		return
	}

	s.metrics.Transition()
	s.logger.Info("state changed",
		"state", ev.State.String(),
		"previous", ev.Previous.String(),
		"distance_cm", ev.DistanceCm)

	s.worker.Post(ev)
	if s.onChange != nil {
		s.onChange(ev)
	}
}

func (s *Session) publish(now time.Time, est guidance.SmoothedEstimate, ok bool) {
	s.snap.Store(&snapshot{
		state:       s.classifier.State(),
		distance:    est.DistanceCm,
		hasEstimate: ok,
		updated:     now,
	})
}

// State returns the latest published state.
func (s *Session) State() guidance.State {
	return s.snap.Load().state
}

// Status returns a point-in-time view of the session.
func (s *Session) Status() Status {
	snap := s.snap.Load()
	return Status{
		ID:          s.id,
		State:       snap.state,
		DistanceCm:  snap.distance,
		HasEstimate: snap.hasEstimate,
		Calibrated:  s.estimator.Calibrated(),
		Facing:      s.opts.Camera.Facing.String(),
		StartedAt:   s.started,
		UpdatedAt:   snap.updated,
		Metrics:     s.metrics.Snapshot(),
		Alerts:      s.dispatcher.Stats(),
	}
}

// stop cancels all work, releases the camera and discards estimation state.
func (s *Session) stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if err := s.source.Stop(); err != nil {
			s.logger.Warn("camera stop failed", "error", err)
		}
		s.wg.Wait()

		s.queue.Clear()
		s.smoother.Reset()
		s.classifier.Reset()

		m := s.metrics.Snapshot()
		s.logger.Info("session stopped",
			"frames", m.FramesIn,
			"dropped", s.queue.Dropped(),
			"transitions", m.Transitions,
			"latency", m.FormatLatency())
	})
}
