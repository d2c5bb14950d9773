package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/cleargaze/pkg/guidance"
)

// Stats counts dispatcher outcomes.
type Stats struct {
	Dispatched int `json:"dispatched"`
	Suppressed int `json:"suppressed"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"` // Dispatches where at least one channel failed
}

// Dispatcher rate-limits notifications to one per cooldown period.
//
// Events arriving inside the cooldown are dropped, not queued; only the most
// recent state is remembered and announced by Tick once the cooldown ends,
// provided it differs from what was last announced.
type Dispatcher struct {
	sink     Sink
	cooldown time.Duration
	channels guidance.Channels
	session  string
	logger   *slog.Logger

	mu           sync.Mutex
	dispatched   bool // At least one notification went out
	lastDispatch time.Time
	lastState    guidance.State
	pending      *guidance.AlertEvent
	stats        Stats
}

// NewDispatcher creates a dispatcher for one session.
func NewDispatcher(cfg guidance.Config, sink Sink, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sink:     sink,
		cooldown: cfg.AlertCooldown,
		channels: cfg.Channels,
		logger:   logger,
	}
}

// WithSession tags notifications with a session id.
func (d *Dispatcher) WithSession(id string) *Dispatcher {
	d.session = id
	return d
}

// Submit handles one classifier event. Sinks are called without holding
// the dispatcher lock.
func (d *Dispatcher) Submit(ctx context.Context, ev guidance.AlertEvent) (Outcome, error) {
	d.mu.Lock()
	if !ev.IsStateChange || !d.channels.Any() {
		d.stats.Skipped++
		d.mu.Unlock()
		return Skipped, nil
	}

	if d.dispatched && ev.Timestamp.Sub(d.lastDispatch) < d.cooldown {
		d.pending = &ev
		d.stats.Suppressed++
		d.logger.Debug("alert suppressed", "state", ev.State.String(), "cooldown_left", d.cooldown-ev.Timestamp.Sub(d.lastDispatch))
		d.mu.Unlock()
		return Suppressed, nil
	}

	d.pending = nil
	if d.dispatched && ev.State == d.lastState {
		d.stats.Skipped++
		d.mu.Unlock()
		return Skipped, nil
	}
	n := d.recordLocked(ev, ev.Timestamp)
	d.mu.Unlock()

	return Dispatched, d.notify(ctx, n)
}

// Tick re-evaluates a remembered state once the cooldown has expired.
// It returns Skipped when there is nothing to announce.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) (Outcome, error) {
	d.mu.Lock()
	if d.pending == nil || now.Sub(d.lastDispatch) < d.cooldown {
		d.mu.Unlock()
		return Skipped, nil
	}
	ev := *d.pending
	d.pending = nil
	if ev.State == d.lastState {
		d.stats.Skipped++
		d.mu.Unlock()
		return Skipped, nil
	}
	n := d.recordLocked(ev, now)
	d.mu.Unlock()

	return Dispatched, d.notify(ctx, n)
}

// Pending reports the state waiting for the cooldown to end, if any.
func (d *Dispatcher) Pending() (guidance.State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return guidance.Searching, false
	}
	return d.pending.State, true
}

// Stats returns a snapshot of the outcome counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// recordLocked marks ev as announced and builds its notification.
func (d *Dispatcher) recordLocked(ev guidance.AlertEvent, at time.Time) Notification {
	d.dispatched = true
	d.lastDispatch = at
	d.lastState = ev.State
	d.stats.Dispatched++

	d.logger.Info("alert dispatched",
		"state", ev.State.String(),
		"previous", ev.Previous.String(),
		"distance_cm", ev.DistanceCm)

	return Notification{
		Session:    d.session,
		State:      ev.State,
		Previous:   ev.Previous,
		DistanceCm: ev.DistanceCm,
		Message:    Message(ev.State),
		Timestamp:  at,
	}
}

func (d *Dispatcher) notify(ctx context.Context, n Notification) error {
	err := d.sink.Notify(ctx, n)
	if err != nil {
		d.mu.Lock()
		d.stats.Failed++
		d.mu.Unlock()
	}
	return err
}
