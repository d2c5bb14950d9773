package camera

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("DefaultConfig should be valid, got errors: %v", errs)
	}
}

func TestPresetsValid(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			if cfg == nil {
				t.Fatalf("GetPreset(%q) returned nil", name)
			}
			if errs := cfg.Validate(); len(errs) > 0 {
				t.Errorf("preset %q invalid: %v", name, errs)
			}
		})
	}
	if GetPreset("nonexistent") != nil {
		t.Error("GetPreset should return nil for unknown preset")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"width too small", func(c *Config) { c.Width = 10 }},
		{"height too large", func(c *Config) { c.Height = 5000 }},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }},
		{"fov too wide", func(c *Config) { c.HorizontalFOV = math.Pi }},
		{"brightness out of range", func(c *Config) { c.Brightness = 1.5 }},
		{"exposure out of range", func(c *Config) { c.ExposureValue = -3 }},
		{"unknown facing", func(c *Config) { c.Facing = Facing(7) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			if errs := cfg.Validate(); len(errs) == 0 {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDeviceIndex(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.DeviceIndex(); got != 0 {
		t.Errorf("front device: got %d, want 0", got)
	}
	cfg.Facing = Back
	if got := cfg.DeviceIndex(); got != 1 {
		t.Errorf("back device: got %d, want 1", got)
	}
	cfg.Device = 4
	if got := cfg.DeviceIndex(); got != 4 {
		t.Errorf("explicit device: got %d, want 4", got)
	}
}

func TestParseFacing(t *testing.T) {
	tests := []struct {
		in      string
		want    Facing
		wantErr bool
	}{
		{"front", Front, false},
		{"BACK", Back, false},
		{"rear", Back, false},
		{"", Front, false},
		{"sideways", Front, true},
	}
	for _, tc := range tests {
		got, err := ParseFacing(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseFacing(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFacing(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFocalLengthFromFOV(t *testing.T) {
	// 90 degree FOV: tan(45) = 1, so f = width/2
	f := FocalLengthFromFOV(640, math.Pi/2)
	if math.Abs(f-320) > 1e-9 {
		t.Errorf("got %.4f, want 320", f)
	}
	if FocalLengthFromFOV(0, 1) != 0 {
		t.Error("zero width should yield 0")
	}
	if FocalLengthFromFOV(640, 0) != 0 {
		t.Error("zero fov should yield 0")
	}
}

func TestSyntheticDistanceRoundTrip(t *testing.T) {
	d, ok := DecodeSyntheticDistance(EncodeSyntheticDistance(42.5))
	if !ok || d != 42.5 {
		t.Errorf("got %v/%v, want 42.5/true", d, ok)
	}
	if _, ok := DecodeSyntheticDistance(nil); ok {
		t.Error("nil payload should not decode")
	}
}

func TestSyntheticStream(t *testing.T) {
	src := NewSynthetic(ConstantScript(33))
	cfg := DefaultConfig()
	cfg.Framerate = 100

	frames, err := src.Start(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var last uint64
	for i := 0; i < 3; i++ {
		select {
		case f := <-frames:
			if f.Seq <= last {
				t.Errorf("sequence not increasing: %d after %d", f.Seq, last)
			}
			last = f.Seq
			if f.Format != FormatSynthetic {
				t.Errorf("format: got %v, want synthetic", f.Format)
			}
			if d, ok := DecodeSyntheticDistance(f.Data); !ok || d != 33 {
				t.Errorf("payload: got %v/%v", d, ok)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for frame")
		}
	}

	if _, err := src.Start(context.Background(), cfg); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start: got %v, want ErrAlreadyStarted", err)
	}

	if err := src.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	for range frames {
		// drain until closed
	}
}

func TestSyntheticUnavailable(t *testing.T) {
	src := NewSynthetic(nil).FailWith(ErrUnavailable)
	_, err := src.Start(context.Background(), DefaultConfig())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatal("expected *DeviceError")
	}
	if devErr.Facing != Front {
		t.Errorf("facing: got %v, want front", devErr.Facing)
	}
}

func TestDriveScriptLooksAway(t *testing.T) {
	if _, ok := DriveScript(30 * time.Second); ok {
		t.Error("expected no face at 30s")
	}
	if d, ok := DriveScript(2 * time.Second); !ok || d < 28 || d > 32 {
		t.Errorf("expected ideal distance at 2s, got %v/%v", d, ok)
	}
}
