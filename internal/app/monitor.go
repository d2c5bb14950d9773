package app

import (
	"context"
	"sync"

	"github.com/teslashibe/cleargaze/pkg/camera"
	"github.com/teslashibe/cleargaze/pkg/pipeline"
)

// Monitor is a single foreground session that can be restarted on the
// other camera. It backs the terminal monitor.
type Monitor struct {
	app *App

	mu   sync.Mutex // Serializes switches
	opts pipeline.Options

	idMu sync.RWMutex
	id   pipeline.Handle
}

// StartMonitor starts a session with the app's snapshot.
func (a *App) StartMonitor(ctx context.Context) (*Monitor, error) {
	m := &Monitor{app: a, opts: a.config.Options}
	id, err := a.manager.Start(ctx, m.opts)
	if err != nil {
		return nil, err
	}
	m.setCurrent(id)
	return m, nil
}

// Status implements tui.Controller.
func (m *Monitor) Status() (pipeline.Status, error) {
	return m.app.manager.Status(m.current())
}

// SwitchFacing stops the current session and starts a fresh one on the
// other camera. Estimation state does not carry over. If the other camera
// cannot be opened the previous one is restarted and the error returned.
func (m *Monitor) SwitchFacing() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.app.manager.Stop(m.current()); err != nil {
		return err
	}
	next := m.opts
	if next.Camera.Facing == camera.Front {
		next.Camera.Facing = camera.Back
	} else {
		next.Camera.Facing = camera.Front
	}
	next.Camera.Device = -1

	id, err := m.app.manager.Start(context.Background(), next)
	if err != nil {
		prev, restartErr := m.app.manager.Start(context.Background(), m.opts)
		if restartErr == nil {
			m.setCurrent(prev)
		}
		return err
	}
	m.setCurrent(id)
	m.opts = next
	return nil
}

// Stop ends the session.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.app.manager.Stop(m.current())
}

func (m *Monitor) current() pipeline.Handle {
	m.idMu.RLock()
	defer m.idMu.RUnlock()
	return m.id
}

func (m *Monitor) setCurrent(id pipeline.Handle) {
	m.idMu.Lock()
	m.id = id
	m.idMu.Unlock()
}
