package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Store holds the settings loaded once at process start. Sessions receive
// a Snapshot copy; nothing in the pipeline writes back.
type Store struct {
	path     string
	settings Settings
}

// Open loads path (DefaultConfigPath when empty) and applies env overrides.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyEnv(os.Getenv); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	return &Store{path: path, settings: s}, nil
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Settings returns a copy of the loaded settings.
func (s *Store) Settings() Settings {
	return s.settings
}

// Template is written by `cleargaze config`.
const Template = `# cleargaze settings. Every key is optional.

[log]
# level = "info"            # debug, info, warn, error

[guidance]
# preset = "default"        # default, relaxed, strict
# ideal-cm = 30.0
# tolerance-cm = 5.0
# min-confidence = 0.6
# smoothing-ms = 1000
# debounce-samples = 3
# lost-grace-ms = 1500
# cooldown-ms = 3000

[alerts]
# sound = true
# vibration = true
# visual = true
# audio-backend = "auto"    # auto, aplay, mock
# audio-device = ""         # e.g. "plughw:1,0"
# volume = 0.6
# remote-url = ""           # ws://phone.local:9000/alerts

[camera]
# preset = "default"        # default, low, 720p, night, rear
# facing = "front"          # front, back
# device = -1
# width = 640
# height = 480
# framerate = 30

[calibration]
# interocular-cm = 6.3
# focal-length-px = 457.0   # written by: cleargaze calibrate --distance-cm 30

[server]
# port = 8080
# auto-start = false

[journal]
# path = ""
# disabled = false

[face]
# model-path = ""
`

// WriteTemplate writes Template to path unless a file already exists there.
// It reports whether the file was written.
func WriteTemplate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// Save writes s to path as TOML, replacing the file. Comments in an
// existing file are not preserved.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if err := toml.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
