package alert

import (
	"context"
	"log/slog"
	"time"

	"github.com/teslashibe/cleargaze/pkg/guidance"
)

// DefaultTickInterval is how often a Worker re-evaluates the cooldown.
const DefaultTickInterval = 100 * time.Millisecond

// Worker runs a Dispatcher on its own goroutine so that slow sinks never
// block the caller. Its mailbox holds one event; a newer event replaces an
// undelivered older one.
type Worker struct {
	dispatcher *Dispatcher
	mailbox    chan guidance.AlertEvent
	interval   time.Duration
	logger     *slog.Logger
	now        func() time.Time

	// OnOutcome, if set, is called on the worker goroutine after each
	// dispatch attempt. Set it before Run.
	OnOutcome func(ev guidance.AlertEvent, outcome Outcome, err error)
}

// NewWorker wraps d.
func NewWorker(d *Dispatcher, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		dispatcher: d,
		mailbox:    make(chan guidance.AlertEvent, 1),
		interval:   DefaultTickInterval,
		logger:     logger,
		now:        time.Now,
	}
}

// Post hands an event to the worker without blocking.
func (w *Worker) Post(ev guidance.AlertEvent) {
	for {
		select {
		case w.mailbox <- ev:
			return
		default:
		}
		select {
		case old := <-w.mailbox:
			w.logger.Debug("alert superseded", "dropped", old.State.String(), "by", ev.State.String())
		default:
		}
	}
}

// Run processes events until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-w.mailbox:
			outcome, err := w.dispatcher.Submit(ctx, ev)
			w.report(ev, outcome, err)
		case <-ticker.C:
			ev, pending := w.pendingEvent()
			outcome, err := w.dispatcher.Tick(ctx, w.now())
			if pending && outcome == Dispatched {
				w.report(ev, outcome, err)
			}
		}
	}
}

func (w *Worker) pendingEvent() (guidance.AlertEvent, bool) {
	w.dispatcher.mu.Lock()
	defer w.dispatcher.mu.Unlock()
	if w.dispatcher.pending == nil {
		return guidance.AlertEvent{}, false
	}
	return *w.dispatcher.pending, true
}

func (w *Worker) report(ev guidance.AlertEvent, outcome Outcome, err error) {
	if err != nil {
		w.logger.Warn("alert delivery failed", "state", ev.State.String(), "error", err)
	}
	if w.OnOutcome != nil {
		w.OnOutcome(ev, outcome, err)
	}
}
