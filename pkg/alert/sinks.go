package alert

import (
	"context"
	"time"

	"github.com/teslashibe/cleargaze/pkg/audioio"
	"github.com/teslashibe/cleargaze/pkg/guidance"
	"github.com/teslashibe/cleargaze/pkg/hub"
)

// DefaultTones maps each state to its beep pattern. Urgent states use
// higher, repeated beeps; Ideal gets a single soft confirmation.
func DefaultTones() map[guidance.State]audioio.Tone {
	return map[guidance.State]audioio.Tone{
		guidance.TooClose: {Frequency: 1320, Duration: 90 * time.Millisecond, Repeat: 3, Gap: 60 * time.Millisecond, Gain: 0.9},
		guidance.TooFar:   {Frequency: 660, Duration: 150 * time.Millisecond, Repeat: 2, Gap: 90 * time.Millisecond, Gain: 0.8},
		guidance.Ideal:    {Frequency: 880, Duration: 120 * time.Millisecond, Repeat: 1, Gain: 0.4},
		guidance.Lost:     {Frequency: 440, Duration: 400 * time.Millisecond, Repeat: 2, Gap: 150 * time.Millisecond, Gain: 1.0},
	}
}

// SoundSink plays a per-state tone on an audio sink.
type SoundSink struct {
	out   audioio.Sink
	tones map[guidance.State]audioio.Tone
}

// NewSoundSink creates a sound sink with DefaultTones. out must be started.
func NewSoundSink(out audioio.Sink) *SoundSink {
	return &SoundSink{out: out, tones: DefaultTones()}
}

// Notify interrupts any tone still playing and plays the one for n.State.
func (s *SoundSink) Notify(ctx context.Context, n Notification) error {
	tone, ok := s.tones[n.State]
	if !ok {
		return nil
	}
	cfg := s.out.Config()
	if cfg.Volume > 0 {
		tone.Gain *= cfg.Volume
	}
	if err := s.out.Clear(); err != nil {
		return err
	}
	return s.out.Write(ctx, tone.Render(cfg.SampleRate, cfg.Channels))
}

// Vibrator drives a haptic motor with alternating on/off durations.
type Vibrator interface {
	Vibrate(ctx context.Context, pattern []time.Duration) error
}

// NoVibrator is used on devices without a haptic motor.
type NoVibrator struct{}

// Vibrate always returns ErrChannelUnsupported.
func (NoVibrator) Vibrate(context.Context, []time.Duration) error {
	return ErrChannelUnsupported
}

// DefaultPatterns maps states to vibration patterns (on, off, on, ...).
func DefaultPatterns() map[guidance.State][]time.Duration {
	ms := time.Millisecond
	return map[guidance.State][]time.Duration{
		guidance.TooClose: {200 * ms, 100 * ms, 200 * ms, 100 * ms, 200 * ms},
		guidance.TooFar:   {400 * ms, 200 * ms, 400 * ms},
		guidance.Lost:     {800 * ms},
	}
}

// HapticSink vibrates for states that need attention.
type HapticSink struct {
	vibrator Vibrator
	patterns map[guidance.State][]time.Duration
}

// NewHapticSink creates a haptic sink with DefaultPatterns.
func NewHapticSink(v Vibrator) *HapticSink {
	if v == nil {
		v = NoVibrator{}
	}
	return &HapticSink{vibrator: v, patterns: DefaultPatterns()}
}

// Notify vibrates with the pattern for n.State, if any.
func (h *HapticSink) Notify(ctx context.Context, n Notification) error {
	pattern, ok := h.patterns[n.State]
	if !ok {
		return nil
	}
	return h.vibrator.Vibrate(ctx, pattern)
}

// HubVibrator forwards vibration patterns to connected phone companions.
type HubVibrator struct {
	Hub *hub.Hub
}

type vibratePayload struct {
	PatternMs []int64 `json:"pattern_ms"`
}

// Vibrate broadcasts the pattern. It returns ErrChannelUnsupported when no
// companion is connected.
func (v HubVibrator) Vibrate(ctx context.Context, pattern []time.Duration) error {
	if v.Hub == nil || v.Hub.ClientCount() == 0 {
		return ErrChannelUnsupported
	}
	p := vibratePayload{PatternMs: make([]int64, len(pattern))}
	for i, d := range pattern {
		p.PatternMs[i] = d.Milliseconds()
	}
	return v.Hub.BroadcastJSON(hub.Envelope{
		Type:      hub.TypeVibrate,
		Timestamp: time.Now(),
		Payload:   p,
	})
}

// VisualSink hands notifications to an in-process display.
type VisualSink struct {
	show func(Notification)
}

// NewVisualSink wraps a display callback. The callback must not block.
func NewVisualSink(show func(Notification)) *VisualSink {
	return &VisualSink{show: show}
}

// Notify calls the display callback.
func (v *VisualSink) Notify(ctx context.Context, n Notification) error {
	if v.show == nil {
		return ErrChannelUnsupported
	}
	v.show(n)
	return nil
}

// HubSink broadcasts notifications to web dashboards.
type HubSink struct {
	hub *hub.Hub
}

// NewHubSink creates a hub-backed visual sink.
func NewHubSink(h *hub.Hub) *HubSink {
	return &HubSink{hub: h}
}

// Notify broadcasts n as an alert envelope.
func (s *HubSink) Notify(ctx context.Context, n Notification) error {
	return s.hub.BroadcastJSON(hub.Envelope{
		Type:      hub.TypeAlert,
		Session:   n.Session,
		Timestamp: n.Timestamp,
		Payload:   n,
	})
}
