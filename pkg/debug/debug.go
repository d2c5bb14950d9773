// Package debug provides global debug logging flags
package debug

import "log/slog"

// Enabled controls whether debug logging is active
var Enabled bool

// Frames controls whether per-frame pipeline logs are shown (observations,
// samples, queue drops). Use --debug-frames to enable these very verbose logs.
var Frames bool

// Log emits a debug record only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		slog.Debug(msg, args...)
	}
}

// FrameLog emits a debug record only if frame tracing is enabled
func FrameLog(logger *slog.Logger, msg string, args ...any) {
	if !Frames {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug(msg, args...)
}
