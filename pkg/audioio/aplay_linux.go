//go:build linux

package audioio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

// AplaySink plays audio through a persistent aplay process fed over stdin.
// This avoids spawning a process per alert.
type AplaySink struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	running bool
	closed  bool

	chunksWritten  atomic.Int64
	samplesWritten atomic.Int64
}

// newAplaySink checks that aplay is installed.
func newAplaySink(cfg Config, logger *slog.Logger) (Sink, error) {
	if _, err := exec.LookPath("aplay"); err != nil {
		return nil, fmt.Errorf("aplay not found (install alsa-utils): %w", err)
	}
	return &AplaySink{cfg: cfg, logger: logger}, nil
}

// Start launches the aplay process.
func (a *AplaySink) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return io.ErrClosedPipe
	}
	if a.running {
		return nil
	}
	return a.spawnLocked()
}

func (a *AplaySink) spawnLocked() error {
	args := []string{
		"-q",
		"-t", "raw",
		"-f", "S16_LE",
		"-r", strconv.Itoa(a.cfg.SampleRate),
		"-c", strconv.Itoa(a.cfg.Channels),
	}
	if a.cfg.Device != "" {
		args = append(args, "-D", a.cfg.Device)
	}
	args = append(args, "-")

	cmd := exec.Command("aplay", args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start aplay: %w", err)
	}

	a.cmd = cmd
	a.stdin = stdin
	a.running = true
	a.logger.Info("aplay sink started",
		"device", a.cfg.Device,
		"sample_rate", a.cfg.SampleRate,
		"channels", a.cfg.Channels)
	return nil
}

func (a *AplaySink) stopLocked() {
	if !a.running {
		return
	}
	a.running = false
	a.stdin.Close()
	if a.cmd.Process != nil {
		a.cmd.Process.Kill()
	}
	a.cmd.Wait()
	a.cmd, a.stdin = nil, nil
}

// Stop terminates the aplay process.
func (a *AplaySink) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	return nil
}

// Write converts the chunk to the device rate and pipes it to aplay.
func (a *AplaySink) Write(ctx context.Context, chunk AudioChunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if chunk.Channels != a.cfg.Channels {
		return fmt.Errorf("audioio: chunk has %d channels, sink expects %d", chunk.Channels, a.cfg.Channels)
	}
	chunk = Resample(chunk, a.cfg.SampleRate)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || !a.running {
		return io.ErrClosedPipe
	}
	if _, err := a.stdin.Write(chunk.Bytes()); err != nil {
		a.stopLocked()
		return fmt.Errorf("aplay write: %w", err)
	}

	a.chunksWritten.Add(1)
	a.samplesWritten.Add(int64(len(chunk.Samples)))
	return nil
}

// Flush is a no-op: aplay drains its own buffer.
func (a *AplaySink) Flush(ctx context.Context) error {
	return ctx.Err()
}

// Clear interrupts whatever is playing by restarting aplay.
func (a *AplaySink) Clear() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return nil
	}
	a.stopLocked()
	return a.spawnLocked()
}

// Config returns the audio configuration.
func (a *AplaySink) Config() Config {
	return a.cfg
}

// Name returns "aplay".
func (a *AplaySink) Name() string {
	return "aplay"
}

// Close stops playback permanently.
func (a *AplaySink) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	a.closed = true
	return nil
}

// Stats returns sink statistics.
func (a *AplaySink) Stats() SinkStats {
	a.mu.Lock()
	running := a.running
	a.mu.Unlock()
	return SinkStats{
		ChunksWritten:  a.chunksWritten.Load(),
		SamplesWritten: a.samplesWritten.Load(),
		Running:        running,
		Backend:        "aplay",
	}
}
