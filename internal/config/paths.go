// Package config loads the cleargaze settings file and turns it into the
// immutable snapshot a monitoring session runs with.
package config

import (
	"os"
	"path/filepath"
)

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML settings path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "cleargaze", "config.toml")
}

// DefaultJournalPath returns the default path for the session journal.
func DefaultJournalPath() string {
	return filepath.Join(XDGDataHome(), "cleargaze", "journal.db")
}

// DefaultModelPath returns where the face model is looked up when the
// settings file does not name one.
func DefaultModelPath() string {
	return filepath.Join(XDGDataHome(), "cleargaze", "models", "face_detection_yunet.onnx")
}
