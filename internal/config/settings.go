package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/teslashibe/cleargaze/pkg/audioio"
	"github.com/teslashibe/cleargaze/pkg/camera"
	"github.com/teslashibe/cleargaze/pkg/guidance"
	"github.com/teslashibe/cleargaze/pkg/pipeline"
)

// Settings mirrors the TOML settings file. Nil pointers mean "not set".
type Settings struct {
	Log         LogSettings         `toml:"log"`
	Guidance    GuidanceSettings    `toml:"guidance"`
	Alerts      AlertSettings       `toml:"alerts"`
	Camera      CameraSettings      `toml:"camera"`
	Calibration CalibrationSettings `toml:"calibration"`
	Server      ServerSettings      `toml:"server"`
	Journal     JournalSettings     `toml:"journal"`
	Face        FaceSettings        `toml:"face"`
}

// LogSettings maps [log].
type LogSettings struct {
	Level *string `toml:"level"`
}

// GuidanceSettings maps [guidance]. Durations are in milliseconds.
type GuidanceSettings struct {
	Preset          *string  `toml:"preset"`
	IdealCm         *float64 `toml:"ideal-cm"`
	ToleranceCm     *float64 `toml:"tolerance-cm"`
	MinConfidence   *float64 `toml:"min-confidence"`
	SmoothingMs     *int     `toml:"smoothing-ms"`
	DebounceSamples *int     `toml:"debounce-samples"`
	LostGraceMs     *int     `toml:"lost-grace-ms"`
	CooldownMs      *int     `toml:"cooldown-ms"`
}

// AlertSettings maps [alerts].
type AlertSettings struct {
	Sound        *bool    `toml:"sound"`
	Vibration    *bool    `toml:"vibration"`
	Visual       *bool    `toml:"visual"`
	AudioBackend *string  `toml:"audio-backend"`
	AudioDevice  *string  `toml:"audio-device"`
	Volume       *float64 `toml:"volume"`
	RemoteURL    *string  `toml:"remote-url"`
}

// CameraSettings maps [camera].
type CameraSettings struct {
	Preset    *string `toml:"preset"`
	Facing    *string `toml:"facing"`
	Device    *int    `toml:"device"`
	Width     *int    `toml:"width"`
	Height    *int    `toml:"height"`
	Framerate *int    `toml:"framerate"`
}

// CalibrationSettings maps [calibration].
type CalibrationSettings struct {
	InterocularCm *float64 `toml:"interocular-cm"`
	FocalLengthPx *float64 `toml:"focal-length-px"`
}

// ServerSettings maps [server].
type ServerSettings struct {
	Port      *int  `toml:"port"`
	AutoStart *bool `toml:"auto-start"`
}

// JournalSettings maps [journal].
type JournalSettings struct {
	Path     *string `toml:"path"`
	Disabled *bool   `toml:"disabled"`
}

// FaceSettings maps [face].
type FaceSettings struct {
	ModelPath *string `toml:"model-path"`
}

// Load reads a TOML settings file. A missing file is not an error.
func Load(path string) (Settings, error) {
	if path == "" {
		return Settings{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var s Settings
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return Settings{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return s, nil
}

// Snapshot resolves the settings on top of the defaults into pipeline options.
// The result is validated; an invalid guidance config returns its *guidance.ConfigError.
func (s Settings) Snapshot() (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()

	// Guidance
	if s.Guidance.Preset != nil {
		cfg, ok := guidance.Preset(*s.Guidance.Preset)
		if !ok {
			return opts, fmt.Errorf("unknown guidance preset %q", *s.Guidance.Preset)
		}
		opts.Guidance = cfg
	}
	g := &opts.Guidance
	setFloat(&g.IdealDistanceCm, s.Guidance.IdealCm)
	setFloat(&g.ToleranceCm, s.Guidance.ToleranceCm)
	setFloat(&g.MinFaceConfidence, s.Guidance.MinConfidence)
	setMillis(&g.SmoothingWindow, s.Guidance.SmoothingMs)
	setInt(&g.DebounceSamples, s.Guidance.DebounceSamples)
	setMillis(&g.LostGrace, s.Guidance.LostGraceMs)
	setMillis(&g.AlertCooldown, s.Guidance.CooldownMs)
	setBool(&g.Channels.Sound, s.Alerts.Sound)
	setBool(&g.Channels.Vibration, s.Alerts.Vibration)
	setBool(&g.Channels.Visual, s.Alerts.Visual)
	if err := g.Validate(); err != nil {
		return opts, err
	}

	// Camera
	if s.Camera.Preset != nil {
		preset := camera.GetPreset(*s.Camera.Preset)
		if preset == nil {
			return opts, fmt.Errorf("unknown camera preset %q (available: %s)",
				*s.Camera.Preset, strings.Join(camera.PresetNames(), ", "))
		}
		opts.Camera = *preset
	}
	c := &opts.Camera
	if s.Camera.Facing != nil {
		f, err := camera.ParseFacing(*s.Camera.Facing)
		if err != nil {
			return opts, err
		}
		c.Facing = f
	}
	setInt(&c.Device, s.Camera.Device)
	setInt(&c.Width, s.Camera.Width)
	setInt(&c.Height, s.Camera.Height)
	setInt(&c.Framerate, s.Camera.Framerate)
	if errs := c.Validate(); len(errs) > 0 {
		return opts, fmt.Errorf("invalid camera config: %s", strings.Join(errs, "; "))
	}

	// Calibration follows the resolved camera unless pinned.
	opts.Calibration.FocalLengthPx = c.FocalLengthPx()
	setFloat(&opts.Calibration.InterocularCm, s.Calibration.InterocularCm)
	setFloat(&opts.Calibration.FocalLengthPx, s.Calibration.FocalLengthPx)

	return opts, nil
}

// Audio returns the audio output configuration for the sound channel.
func (s Settings) Audio() (audioio.Config, error) {
	cfg := audioio.DefaultConfig()
	if s.Alerts.AudioBackend != nil {
		cfg.Backend = audioio.Backend(*s.Alerts.AudioBackend)
	}
	if s.Alerts.AudioDevice != nil {
		cfg.Device = *s.Alerts.AudioDevice
	}
	setFloat(&cfg.Volume, s.Alerts.Volume)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LogLevel returns the configured level, defaulting to "info".
func (s Settings) LogLevel() string {
	return stringOr(s.Log.Level, "info")
}

// Port returns the HTTP port for `serve`.
func (s Settings) Port() int {
	if s.Server.Port != nil {
		return *s.Server.Port
	}
	return 8080
}

// AutoStart reports whether `serve` starts a session at boot.
func (s Settings) AutoStart() bool {
	return s.Server.AutoStart != nil && *s.Server.AutoStart
}

// RemoteURL returns the companion websocket URL, or "" when unset.
func (s Settings) RemoteURL() string {
	return stringOr(s.Alerts.RemoteURL, "")
}

// JournalPath returns the journal database path, or "" when disabled.
func (s Settings) JournalPath() string {
	if s.Journal.Disabled != nil && *s.Journal.Disabled {
		return ""
	}
	return stringOr(s.Journal.Path, DefaultJournalPath())
}

// ModelPath returns the YuNet model path.
func (s Settings) ModelPath() string {
	return stringOr(s.Face.ModelPath, DefaultModelPath())
}

// Env variable names read by ApplyEnv.
const (
	EnvLogLevel      = "CLEARGAZE_LOG_LEVEL"
	EnvFacing        = "CLEARGAZE_FACING"
	EnvPort          = "CLEARGAZE_PORT"
	EnvAutoStart     = "CLEARGAZE_AUTO_START"
	EnvSound         = "CLEARGAZE_SOUND"
	EnvVibration     = "CLEARGAZE_VIBRATION"
	EnvRemoteURL     = "CLEARGAZE_REMOTE_URL"
	EnvFocalLengthPx = "CLEARGAZE_FOCAL_LENGTH_PX"
	EnvModelPath     = "CLEARGAZE_MODEL"
	EnvJournalPath   = "CLEARGAZE_JOURNAL"
)

// ApplyEnv overlays CLEARGAZE_* environment variables. getenv is os.Getenv
// outside tests.
func (s *Settings) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	var errs []error
	str := func(key string, dst **string) {
		if v := getenv(key); v != "" {
			*dst = &v
		}
	}
	boolean := func(key string, dst **bool) {
		if v := getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = &b
		}
	}

	str(EnvLogLevel, &s.Log.Level)
	str(EnvFacing, &s.Camera.Facing)
	str(EnvRemoteURL, &s.Alerts.RemoteURL)
	str(EnvModelPath, &s.Face.ModelPath)
	str(EnvJournalPath, &s.Journal.Path)
	boolean(EnvAutoStart, &s.Server.AutoStart)
	boolean(EnvSound, &s.Alerts.Sound)
	boolean(EnvVibration, &s.Alerts.Vibration)

	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvPort, err))
		} else {
			s.Server.Port = &port
		}
	}
	if v := getenv(EnvFocalLengthPx); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvFocalLengthPx, err))
		} else {
			s.Calibration.FocalLengthPx = &f
		}
	}
	return errors.Join(errs...)
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setMillis(dst *time.Duration, v *int) {
	if v != nil {
		*dst = time.Duration(*v) * time.Millisecond
	}
}

func stringOr(v *string, def string) string {
	if v != nil {
		return *v
	}
	return def
}
