// Package app wires the camera, face locator, alert outputs, journal and
// status hub into a session manager and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/cleargaze/pkg/alert"
	"github.com/teslashibe/cleargaze/pkg/audioio"
	"github.com/teslashibe/cleargaze/pkg/camera"
	"github.com/teslashibe/cleargaze/pkg/debug"
	"github.com/teslashibe/cleargaze/pkg/face"
	"github.com/teslashibe/cleargaze/pkg/guidance"
	"github.com/teslashibe/cleargaze/pkg/hub"
	"github.com/teslashibe/cleargaze/pkg/journal"
	"github.com/teslashibe/cleargaze/pkg/pipeline"
	"github.com/teslashibe/cleargaze/pkg/web"
)

// Config selects the components the app builds.
type Config struct {
	Options pipeline.Options // Snapshot new sessions start from

	Demo        bool // Synthetic camera and locator, no hardware
	Debug       bool
	DebugFrames bool

	Audio       audioio.Config
	ModelPath   string
	RemoteURL   string // Companion websocket; empty disables it
	JournalPath string // Empty disables the journal

	Logger *slog.Logger
}

// App is the cleargaze orchestrator.
type App struct {
	config Config
	logger *slog.Logger

	manager *pipeline.Manager
	locator face.Locator
	yunet   *face.YuNet
	status  *hub.Hub
	audio   audioio.Sink
	remote  *alert.RemoteSink

	journal  *journal.Store
	recorder *journal.Recorder

	visualMu sync.RWMutex
	visual   func(alert.Notification)

	hubCancel context.CancelFunc
	closeOnce sync.Once
}

// New validates cfg and sets the debug flags.
func New(cfg Config) (*App, error) {
	if err := cfg.Options.Guidance.Validate(); err != nil {
		return nil, err
	}
	if errs := cfg.Options.Camera.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid camera config: %v", errs)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debug.Enabled = cfg.Debug
	debug.Frames = cfg.DebugFrames
	return &App{config: cfg, logger: logger}, nil
}

// Init builds every component. Optional outputs that fail to start are
// logged and left out; only the face locator is required.
func (a *App) Init() error {
	if err := a.initLocator(); err != nil {
		return fmt.Errorf("face locator: %w", err)
	}
	a.initAudio()
	if a.config.RemoteURL != "" {
		a.remote = alert.NewRemoteSink(a.config.RemoteURL, a.logger)
	}
	if err := a.initJournal(); err != nil {
		a.logger.Warn("journal unavailable, history disabled", "error", err)
	}

	a.status = hub.New("status", a.logger)
	ctx, cancel := context.WithCancel(context.Background())
	a.hubCancel = cancel
	go a.status.Run(ctx)

	a.manager = pipeline.NewManager(pipeline.Deps{
		Source:  a.newSource,
		Locator: a.locator,
		Sink:    a.sinkFor,
		Logger:  a.logger,
	})
	if a.recorder != nil {
		a.manager.Observe(a.recorder)
	}
	a.manager.Observe(web.Broadcaster{Hub: a.status})

	a.logger.Info("cleargaze ready",
		"demo", a.config.Demo,
		"sound", a.audio != nil,
		"remote", a.remote != nil,
		"journal", a.journal != nil)
	return nil
}

func (a *App) initLocator() error {
	if a.config.Demo {
		cal := a.config.Options.Calibration
		a.locator = face.NewSyntheticLocator(cal.InterocularCm, cal.FocalLengthPx)
		return nil
	}
	cfg := face.DefaultConfig()
	if a.config.ModelPath != "" {
		cfg.ModelPath = a.config.ModelPath
	}
	y, err := face.NewYuNet(cfg, a.logger)
	if err != nil {
		return err
	}
	a.yunet = y
	a.locator = y
	return nil
}

func (a *App) initAudio() {
	cfg := a.config.Audio
	if a.config.Demo && cfg.Backend == audioio.BackendAuto {
		cfg.Backend = audioio.BackendMock
	}
	sink, err := audioio.NewSink(cfg, a.logger)
	if err == nil {
		err = sink.Start(context.Background())
	}
	if err != nil {
		a.logger.Warn("audio output unavailable, sound alerts disabled", "error", err)
		return
	}
	a.audio = sink
}

func (a *App) initJournal() error {
	if a.config.JournalPath == "" {
		return nil
	}
	store, err := journal.Open(a.config.JournalPath)
	if err != nil {
		return err
	}
	a.journal = store
	a.recorder = journal.NewRecorder(store, 0, a.logger)
	return nil
}

// newSource returns the camera for one session.
func (a *App) newSource(camera.Config) camera.Source {
	if a.config.Demo {
		return camera.NewSynthetic(camera.DriveScript)
	}
	return camera.NewCapture(a.logger)
}

// sinkFor builds the fan-out sink for one session from its channel toggles.
func (a *App) sinkFor(id pipeline.Handle, cfg guidance.Config) alert.Sink {
	routes := []alert.Route{
		{Channel: alert.ChannelVibration, Sink: alert.NewHapticSink(alert.HubVibrator{Hub: a.status})},
		{Channel: alert.ChannelVisual, Sink: alert.NewVisualSink(a.showVisual)},
		{Channel: alert.ChannelVisual, Sink: alert.NewHubSink(a.status)},
	}
	if a.audio != nil {
		routes = append(routes, alert.Route{Channel: alert.ChannelSound, Sink: alert.NewSoundSink(a.audio)})
	}
	if a.remote != nil {
		routes = append(routes, alert.Route{Channel: alert.ChannelVibration, Sink: a.remote})
	}
	return alert.NewMulti(cfg.Channels, a.logger.With("session", id.String()), routes...)
}

// SetVisual installs the in-process display for visual alerts.
func (a *App) SetVisual(show func(alert.Notification)) {
	a.visualMu.Lock()
	defer a.visualMu.Unlock()
	a.visual = show
}

func (a *App) showVisual(n alert.Notification) {
	a.visualMu.RLock()
	show := a.visual
	a.visualMu.RUnlock()
	if show == nil {
		a.logger.Info("alert", "state", n.State.String(), "message", n.Message, "distance_cm", n.DistanceCm)
		return
	}
	show(n)
}

// Manager returns the session manager. Valid after Init.
func (a *App) Manager() *pipeline.Manager {
	return a.manager
}

// StatusHub returns the status stream hub. Valid after Init.
func (a *App) StatusHub() *hub.Hub {
	return a.status
}

// Journal returns the journal store, or nil when disabled.
func (a *App) Journal() *journal.Store {
	return a.journal
}

// Options returns the session snapshot the app was built with.
func (a *App) Options() pipeline.Options {
	return a.config.Options
}

// Shutdown stops every session and releases all components.
func (a *App) Shutdown() error {
	var errs []error
	a.closeOnce.Do(func() {
		if a.manager != nil {
			errs = append(errs, a.manager.Close())
		}
		if a.recorder != nil {
			a.recorder.Close()
		}
		if a.journal != nil {
			errs = append(errs, a.journal.Close())
		}
		if a.hubCancel != nil {
			a.hubCancel()
		}
		if a.audio != nil {
			errs = append(errs, a.audio.Close())
		}
		if a.remote != nil {
			errs = append(errs, a.remote.Close())
		}
		if a.yunet != nil {
			errs = append(errs, a.yunet.Close())
		}
	})
	return errors.Join(errs...)
}
