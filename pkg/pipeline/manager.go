package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/teslashibe/cleargaze/pkg/alert"
	"github.com/teslashibe/cleargaze/pkg/camera"
	"github.com/teslashibe/cleargaze/pkg/debug"
	"github.com/teslashibe/cleargaze/pkg/face"
	"github.com/teslashibe/cleargaze/pkg/guidance"
)

// Observer is told about session lifecycle and state changes.
// Calls are made from pipeline goroutines and must return quickly.
type Observer interface {
	SessionStarted(st Status)
	StateChanged(id Handle, ev guidance.AlertEvent)
	SessionStopped(st Status)
}

// Deps are the collaborators the manager wires into each session.
type Deps struct {
	// Source returns the camera for a new session.
	Source func(cfg camera.Config) camera.Source

	// Locator is shared by all sessions and must be safe for concurrent use.
	Locator face.Locator

	// Sink builds the alert sink for a new session.
	Sink func(id Handle, cfg guidance.Config) alert.Sink

	Logger *slog.Logger
}

// Manager is the session-control surface: start, stop and query sessions.
type Manager struct {
	deps   Deps
	logger *slog.Logger

	mu        sync.RWMutex
	sessions  map[Handle]*Session
	observers []Observer
	closed    bool
}

// NewManager creates a manager.
func NewManager(deps Deps) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		deps:     deps,
		logger:   logger,
		sessions: make(map[Handle]*Session),
	}
}

// Observe registers an observer. Register observers before starting sessions.
func (m *Manager) Observe(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Start validates opts, opens the camera and starts a session.
//
// Errors: *guidance.ConfigError for an invalid guidance config, an error
// wrapping camera.ErrUnavailable when the sensor cannot be opened.
// An invalid calibration is not an error; the session stays in Searching.
func (m *Manager) Start(ctx context.Context, opts Options) (Handle, error) {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return uuid.Nil, ErrManagerClosed
	}

	id := uuid.New()
	var sink alert.Sink = alert.SinkFunc(func(context.Context, alert.Notification) error { return nil })
	if m.deps.Sink != nil {
		sink = m.deps.Sink(id, opts.Guidance)
	}

	s, err := newSession(id, opts, m.deps.Source(opts.Camera), m.deps.Locator, sink, m.logger)
	if err != nil {
		return uuid.Nil, err
	}
	s.onChange = func(ev guidance.AlertEvent) {
		for _, o := range m.snapshotObservers() {
			o.StateChanged(id, ev)
		}
	}

	if err := s.start(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("start session: %w", err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		s.stop()
		return uuid.Nil, ErrManagerClosed
	}
	m.sessions[id] = s
	m.mu.Unlock()

	debug.Log("session registered", "session", id.String())
	st := s.Status()
	for _, o := range m.snapshotObservers() {
		o.SessionStarted(st)
	}
	return id, nil
}

// Stop ends a session. All of its estimation state is discarded.
func (m *Manager) Stop(id Handle) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	s.stop()
	st := s.Status()
	for _, o := range m.snapshotObservers() {
		o.SessionStopped(st)
	}
	return nil
}

// CurrentState returns the latest state of a session.
func (m *Manager) CurrentState(id Handle) (guidance.State, error) {
	s, err := m.get(id)
	if err != nil {
		return guidance.Searching, err
	}
	return s.State(), nil
}

// Status returns a detailed view of a session.
func (m *Manager) Status(id Handle) (Status, error) {
	s, err := m.get(id)
	if err != nil {
		return Status{}, err
	}
	return s.Status(), nil
}

// List returns the status of every running session, oldest first.
func (m *Manager) List() []Status {
	m.mu.RLock()
	out := make([]Status, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Status())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Close stops every session and rejects new ones.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	ids := make([]Handle, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Stop(id)
	}
	return nil
}

func (m *Manager) get(id Handle) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) snapshotObservers() []Observer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Observer(nil), m.observers...)
}
