package pipeline

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/cleargaze/pkg/alert"
	"github.com/teslashibe/cleargaze/pkg/camera"
	"github.com/teslashibe/cleargaze/pkg/face"
	"github.com/teslashibe/cleargaze/pkg/guidance"
)

// scriptedFace is a synthetic face whose distance tests can move.
// A distance of 0 hides the face.
type scriptedFace struct {
	bits atomic.Uint64
}

func newScriptedFace(cm float64) *scriptedFace {
	f := &scriptedFace{}
	f.set(cm)
	return f
}

func (f *scriptedFace) set(cm float64) {
	f.bits.Store(math.Float64bits(cm))
}

func (f *scriptedFace) script(time.Duration) (float64, bool) {
	cm := math.Float64frombits(f.bits.Load())
	return cm, cm > 0
}

type eventLog struct {
	mu      sync.Mutex
	started []Status
	stopped []Status
	events  []guidance.AlertEvent
}

func (l *eventLog) SessionStarted(st Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = append(l.started, st)
}

func (l *eventLog) StateChanged(id Handle, ev guidance.AlertEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) SessionStopped(st Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = append(l.stopped, st)
}

func (l *eventLog) states() []guidance.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]guidance.State, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.State
	}
	return out
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.Camera.Framerate = 100
	opts.Guidance.SmoothingWindow = 150 * time.Millisecond
	opts.Guidance.LostGrace = 200 * time.Millisecond
	opts.Guidance.AlertCooldown = 0
	opts.TickInterval = 20 * time.Millisecond
	return opts
}

func newTestManager(f *scriptedFace, notified *[]alert.Notification, mu *sync.Mutex) *Manager {
	opts := fastOptions()
	return NewManager(Deps{
		Source: func(camera.Config) camera.Source {
			return camera.NewSynthetic(f.script)
		},
		Locator: face.NewSyntheticLocator(opts.Calibration.InterocularCm, opts.Calibration.FocalLengthPx),
		Sink: func(Handle, guidance.Config) alert.Sink {
			return alert.SinkFunc(func(ctx context.Context, n alert.Notification) error {
				if notified != nil {
					mu.Lock()
					*notified = append(*notified, n)
					mu.Unlock()
				}
				return nil
			})
		},
	})
}

func waitState(t *testing.T, m *Manager, id Handle, want guidance.State) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		got, err := m.CurrentState(id)
		if err != nil {
			t.Fatalf("CurrentState: %v", err)
		}
		if got == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("state: got %v, want %v", got, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestManager_SessionLifecycle(t *testing.T) {
	f := newScriptedFace(30)
	var mu sync.Mutex
	var notified []alert.Notification
	m := newTestManager(f, &notified, &mu)
	log := &eventLog{}
	m.Observe(log)

	id, err := m.Start(context.Background(), fastOptions())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitState(t, m, id, guidance.Ideal)

	f.set(50)
	waitState(t, m, id, guidance.TooFar)

	f.set(15)
	waitState(t, m, id, guidance.TooClose)

	f.set(0)
	waitState(t, m, id, guidance.Lost)

	f.set(30)
	waitState(t, m, id, guidance.Ideal)

	st, err := m.Status(id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Calibrated || st.Metrics.FramesIn == 0 || st.Metrics.FacesFound == 0 {
		t.Errorf("status: got %+v", st)
	}
	if math.Abs(st.DistanceCm-30) > 0.5 {
		t.Errorf("distance: got %.2f, want ~30", st.DistanceCm)
	}

	if err := m.Stop(id); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if _, err := m.CurrentState(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("after stop: got %v, want ErrSessionNotFound", err)
	}
	if err := m.Stop(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second stop: got %v, want ErrSessionNotFound", err)
	}

	want := []guidance.State{guidance.Ideal, guidance.TooFar, guidance.TooClose, guidance.Lost, guidance.Ideal}
	got := log.states()
	if len(got) != len(want) {
		t.Fatalf("transitions: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if len(log.started) != 1 || len(log.stopped) != 1 {
		t.Errorf("lifecycle: %d started, %d stopped", len(log.started), len(log.stopped))
	}

	// Alerts go out asynchronously; allow the worker to drain.
	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(notified)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(notified) == 0 {
		t.Error("no notifications reached the sink")
	}
}

func TestManager_NewSessionStartsFresh(t *testing.T) {
	f := newScriptedFace(30)
	m := newTestManager(f, nil, nil)

	id, err := m.Start(context.Background(), fastOptions())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitState(t, m, id, guidance.Ideal)
	m.Stop(id)

	f.set(0)
	id2, err := m.Start(context.Background(), fastOptions())
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}
	defer m.Stop(id2)
	if id2 == id {
		t.Error("handles must be unique")
	}

	// No face and no history: the new session must stay in Searching.
	time.Sleep(400 * time.Millisecond)
	if got, _ := m.CurrentState(id2); got != guidance.Searching {
		t.Errorf("state: got %v, want searching", got)
	}
}

func TestManager_InvalidCalibrationStaysSearching(t *testing.T) {
	f := newScriptedFace(30)
	m := newTestManager(f, nil, nil)
	defer m.Close()

	opts := fastOptions()
	opts.Calibration.FocalLengthPx = 0

	id, err := m.Start(context.Background(), opts)
	if err != nil {
		t.Fatalf("Start should succeed with bad calibration: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	st, _ := m.Status(id)
	if st.State != guidance.Searching || st.Calibrated {
		t.Errorf("status: state=%v calibrated=%v, want searching/false", st.State, st.Calibrated)
	}
}

func TestManager_StartErrors(t *testing.T) {
	f := newScriptedFace(30)
	m := newTestManager(f, nil, nil)

	opts := fastOptions()
	opts.Guidance.DebounceSamples = 0
	_, err := m.Start(context.Background(), opts)
	var cfgErr *guidance.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("invalid guidance: got %v, want *guidance.ConfigError", err)
	}

	denied := NewManager(Deps{
		Source: func(camera.Config) camera.Source {
			return camera.NewSynthetic(nil).FailWith(camera.ErrUnavailable)
		},
		Locator: face.NewSyntheticLocator(0, 0),
	})
	if _, err := denied.Start(context.Background(), fastOptions()); !errors.Is(err, camera.ErrUnavailable) {
		t.Errorf("denied camera: got %v, want camera.ErrUnavailable", err)
	}
	if len(denied.List()) != 0 {
		t.Error("failed start must not register a session")
	}

	m.Close()
	if _, err := m.Start(context.Background(), fastOptions()); !errors.Is(err, ErrManagerClosed) {
		t.Errorf("after close: got %v, want ErrManagerClosed", err)
	}
}

func TestManager_List(t *testing.T) {
	f := newScriptedFace(30)
	m := newTestManager(f, nil, nil)
	defer m.Close()

	a, _ := m.Start(context.Background(), fastOptions())
	b, _ := m.Start(context.Background(), fastOptions())

	list := m.List()
	if len(list) != 2 {
		t.Fatalf("list: got %d sessions, want 2", len(list))
	}
	if list[0].ID != a || list[1].ID != b {
		t.Error("list should be ordered by start time")
	}
}

// slowLocator blocks until its context is cancelled.
type slowLocator struct {
	calls atomic.Int32
}

func (s *slowLocator) Locate(ctx context.Context, f camera.Frame) (*face.Observation, error) {
	s.calls.Add(1)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSession_SaturatedLocatorDropsFrames(t *testing.T) {
	loc := &slowLocator{}
	f := newScriptedFace(30)
	m := NewManager(Deps{
		Source:  func(camera.Config) camera.Source { return camera.NewSynthetic(f.script) },
		Locator: loc,
	})

	opts := fastOptions()
	opts.LocateTimeout = 10 * time.Second
	id, err := m.Start(context.Background(), opts)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	st, _ := m.Status(id)
	if got := loc.calls.Load(); got != int32(opts.MaxInFlight) {
		t.Errorf("in-flight calls: got %d, want %d", got, opts.MaxInFlight)
	}
	if st.Metrics.FramesDropped == 0 {
		t.Error("expected dropped frames while the locator is saturated")
	}

	// Stop must cancel the blocked locator calls and return.
	done := make(chan struct{})
	go func() {
		m.Stop(id)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel in-flight locate calls")
	}
}
