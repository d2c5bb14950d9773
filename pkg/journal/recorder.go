package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/cleargaze/pkg/guidance"
	"github.com/teslashibe/cleargaze/pkg/pipeline"
)

// Recorder writes pipeline events to a Store from its own goroutine so the
// pipeline never waits on disk.
type Recorder struct {
	store  *Store
	logger *slog.Logger
	ops    chan func(context.Context) error
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewRecorder starts a recorder with room for size pending writes.
func NewRecorder(store *Store, size int, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if size <= 0 {
		size = 256
	}
	r := &Recorder{
		store:  store,
		logger: logger,
		ops:    make(chan func(context.Context) error, size),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for op := range r.ops {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := op(ctx); err != nil {
			r.logger.Warn("journal write failed", "error", err)
		}
		cancel()
	}
}

func (r *Recorder) enqueue(op func(context.Context) error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.ops <- op:
	default:
		r.logger.Warn("journal backlog full, dropping write")
	}
}

// SessionStarted implements pipeline.Observer.
func (r *Recorder) SessionStarted(st pipeline.Status) {
	id, started, facing := st.ID.String(), st.StartedAt, st.Facing
	r.enqueue(func(ctx context.Context) error {
		return r.store.StartSession(ctx, id, started, facing)
	})
}

// StateChanged implements pipeline.Observer.
func (r *Recorder) StateChanged(id pipeline.Handle, ev guidance.AlertEvent) {
	tr := Transition{
		SessionID:  id.String(),
		At:         ev.Timestamp,
		From:       ev.Previous,
		To:         ev.State,
		DistanceCm: ev.DistanceCm,
	}
	r.enqueue(func(ctx context.Context) error {
		return r.store.AddTransition(ctx, tr)
	})
}

// SessionStopped implements pipeline.Observer.
func (r *Recorder) SessionStopped(st pipeline.Status) {
	rec := SessionRecord{
		ID:          st.ID.String(),
		StartedAt:   st.StartedAt,
		EndedAt:     time.Now(),
		Facing:      st.Facing,
		FinalState:  st.State,
		Frames:      st.Metrics.FramesIn,
		Dropped:     st.Metrics.FramesDropped,
		Transitions: st.Metrics.Transitions,
		Alerts:      int64(st.Alerts.Dispatched),
	}
	r.enqueue(func(ctx context.Context) error {
		if err := r.store.StartSession(ctx, rec.ID, rec.StartedAt, rec.Facing); err != nil {
			return err
		}
		return r.store.EndSession(ctx, rec)
	})
}

// Close flushes pending writes. Events after Close are ignored and the
// store stays open.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ops)
	r.mu.Unlock()
	r.wg.Wait()
}

var _ pipeline.Observer = (*Recorder)(nil)
