package audioio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig invalid: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"zero channels", func(c *Config) { c.Channels = 0 }},
		{"zero buffer", func(c *Config) { c.BufferDuration = 0 }},
		{"volume too high", func(c *Config) { c.Volume = 1.5 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultConfig()
			tc.modify(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNewSink_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendMock
	sink, err := NewSink(cfg, nil)
	if err != nil {
		t.Fatalf("NewSink failed: %v", err)
	}
	if sink.Name() != "mock" {
		t.Errorf("name: got %q, want mock", sink.Name())
	}

	cfg.Backend = "cassette"
	if _, err := NewSink(cfg, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestMockSink_WriteClear(t *testing.T) {
	sink := NewMockSink(DefaultConfig(), nil)
	ctx := context.Background()
	chunk := AudioChunk{Samples: make([]int16, 160), SampleRate: 16000, Channels: 1}

	if err := sink.Write(ctx, chunk); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("write before start: got %v, want io.ErrClosedPipe", err)
	}

	if err := sink.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := sink.Write(ctx, chunk); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if n := len(sink.Chunks()); n != 3 {
		t.Errorf("chunks: got %d, want 3", n)
	}

	stats := sink.Stats()
	if stats.ChunksWritten != 3 || stats.SamplesWritten != 480 || !stats.Running {
		t.Errorf("stats: got %+v", stats)
	}

	sink.Clear()
	if n := len(sink.Chunks()); n != 0 {
		t.Errorf("chunks after clear: got %d, want 0", n)
	}

	boom := errors.New("speaker unplugged")
	sink.FailWith(boom)
	if err := sink.Write(ctx, chunk); !errors.Is(err, boom) {
		t.Errorf("got %v, want injected error", err)
	}

	sink.Close()
	if err := sink.Start(ctx); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("start after close: got %v, want io.ErrClosedPipe", err)
	}
}

func TestTone_Render(t *testing.T) {
	tone := Tone{
		Frequency: 880,
		Duration:  100 * time.Millisecond,
		Repeat:    2,
		Gap:       50 * time.Millisecond,
		Gain:      0.5,
	}
	chunk := tone.Render(16000, 2)

	// 2 beeps of 1600 frames + one 800 frame gap, stereo
	if want := (2*1600 + 800) * 2; len(chunk.Samples) != want {
		t.Fatalf("samples: got %d, want %d", len(chunk.Samples), want)
	}
	if d := chunk.Duration(); d < 0.249 || d > 0.251 {
		t.Errorf("duration: got %.3f, want 0.25", d)
	}

	var peak int16
	for _, s := range chunk.Samples {
		if s > peak {
			peak = s
		}
	}
	if peak < 15000 || peak > 16384 {
		t.Errorf("peak: got %d, want about half scale", peak)
	}

	// The gap is silent.
	for i := 1600 * 2; i < 2400*2; i++ {
		if chunk.Samples[i] != 0 {
			t.Fatalf("gap sample %d not silent: %d", i, chunk.Samples[i])
		}
	}

	// Edges are ramped.
	if chunk.Samples[0] != 0 {
		t.Errorf("first sample should be silent, got %d", chunk.Samples[0])
	}
}

func TestResample(t *testing.T) {
	in := AudioChunk{Samples: []int16{0, 0, 100, 100, 200, 200, 300, 300}, SampleRate: 8000, Channels: 2}

	same := Resample(in, 8000)
	if len(same.Samples) != len(in.Samples) {
		t.Error("same rate should return input unchanged")
	}

	down := Resample(in, 4000)
	if down.SampleRate != 4000 || len(down.Samples) != 4 {
		t.Fatalf("downsample: got rate %d, %d samples", down.SampleRate, len(down.Samples))
	}
	if down.Samples[2] != 200 || down.Samples[3] != 200 {
		t.Errorf("downsample frame 1: got %v, want [200 200]", down.Samples[2:4])
	}

	up := Resample(in, 16000)
	if len(up.Samples) != 16 {
		t.Fatalf("upsample: got %d samples, want 16", len(up.Samples))
	}
	if up.Samples[2] != 50 {
		t.Errorf("interpolated sample: got %d, want 50", up.Samples[2])
	}
}

func TestAudioChunk_Bytes(t *testing.T) {
	chunk := AudioChunk{Samples: []int16{0x0102, -1}}
	b := chunk.Bytes()
	want := []byte{0x02, 0x01, 0xff, 0xff}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("bytes: got %v, want %v", b, want)
		}
	}
}
