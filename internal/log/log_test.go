package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewFormats(t *testing.T) {
	var text bytes.Buffer
	New(&text, "info").Info("state changed", "state", "ideal")
	if !strings.Contains(text.String(), "state=ideal") {
		t.Errorf("text output = %q", text.String())
	}

	t.Setenv("GO_ENV", "production")
	var js bytes.Buffer
	New(&js, "info").Info("state changed", "state", "ideal")
	if !strings.Contains(js.String(), `"state":"ideal"`) {
		t.Errorf("json output = %q", js.String())
	}

	var quiet bytes.Buffer
	New(&quiet, "warn").Info("hidden")
	if quiet.Len() != 0 {
		t.Errorf("info logged at warn level: %q", quiet.String())
	}
}
