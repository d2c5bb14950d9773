package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/cleargaze/pkg/guidance"
	"github.com/teslashibe/cleargaze/pkg/pipeline"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreSessionLifecycle(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	if err := store.StartSession(ctx, "a", t0, "front"); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := store.StartSession(ctx, "b", t0.Add(time.Minute), "back"); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	// Repeated start keeps a single row.
	if err := store.StartSession(ctx, "a", t0, "front"); err != nil {
		t.Fatalf("StartSession repeat: %v", err)
	}

	err := store.EndSession(ctx, SessionRecord{
		ID:          "a",
		EndedAt:     t0.Add(10 * time.Second),
		FinalState:  guidance.Ideal,
		Frames:      300,
		Transitions: 2,
		Alerts:      1,
	})
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}

	recs, err := store.RecentSessions(ctx, 10)
	if err != nil {
		t.Fatalf("RecentSessions: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("sessions = %d, want 2", len(recs))
	}
	if recs[0].ID != "b" {
		t.Errorf("newest session = %q, want b", recs[0].ID)
	}
	if !recs[0].EndedAt.IsZero() || recs[0].Duration() != 0 {
		t.Errorf("running session should have no end, got %v", recs[0].EndedAt)
	}
	a := recs[1]
	if a.FinalState != guidance.Ideal || a.Frames != 300 || a.Alerts != 1 {
		t.Errorf("session a = %+v", a)
	}
	if a.Duration() != 10*time.Second {
		t.Errorf("Duration = %v, want 10s", a.Duration())
	}
}

func TestEndUnknownSession(t *testing.T) {
	store := openTemp(t)
	err := store.EndSession(context.Background(), SessionRecord{ID: "missing", EndedAt: time.Now()})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTransitionsAndDurations(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	if err := store.StartSession(ctx, "s", t0, "front"); err != nil {
		t.Fatal(err)
	}
	steps := []Transition{
		{SessionID: "s", At: t0.Add(2 * time.Second), From: guidance.Searching, To: guidance.Ideal, DistanceCm: 31},
		{SessionID: "s", At: t0.Add(7 * time.Second), From: guidance.Ideal, To: guidance.TooClose, DistanceCm: 22},
		{SessionID: "s", At: t0.Add(9 * time.Second), From: guidance.TooClose, To: guidance.Ideal, DistanceCm: 29},
	}
	for _, tr := range steps {
		if err := store.AddTransition(ctx, tr); err != nil {
			t.Fatalf("AddTransition: %v", err)
		}
	}
	if err := store.EndSession(ctx, SessionRecord{ID: "s", EndedAt: t0.Add(12 * time.Second), FinalState: guidance.Ideal}); err != nil {
		t.Fatal(err)
	}

	got, err := store.Transitions(ctx, "s")
	if err != nil {
		t.Fatalf("Transitions: %v", err)
	}
	if len(got) != len(steps) {
		t.Fatalf("transitions = %d, want %d", len(got), len(steps))
	}
	for i := range steps {
		if got[i].To != steps[i].To || !got[i].At.Equal(steps[i].At) {
			t.Errorf("transition %d = %+v, want %+v", i, got[i], steps[i])
		}
	}

	durs, err := store.StateDurations(ctx, "s", time.Now())
	if err != nil {
		t.Fatalf("StateDurations: %v", err)
	}
	want := map[guidance.State]time.Duration{
		guidance.Searching: 2 * time.Second,
		guidance.Ideal:     8 * time.Second,
		guidance.TooClose:  2 * time.Second,
	}
	for state, d := range want {
		if durs[state] != d {
			t.Errorf("%s = %v, want %v", state, durs[state], d)
		}
	}

	if _, err := store.StateDurations(ctx, "nope", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown session err = %v, want ErrNotFound", err)
	}
}

func TestSubSecondOrdering(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.StartSession(ctx, "s", t0, "front"); err != nil {
		t.Fatal(err)
	}
	// Inserted newest first so insertion order cannot mask the sort.
	steps := []Transition{
		{SessionID: "s", At: t0.Add(550 * time.Millisecond), From: guidance.Ideal, To: guidance.TooFar},
		{SessionID: "s", At: t0.Add(500 * time.Millisecond), From: guidance.Searching, To: guidance.Ideal},
	}
	for _, tr := range steps {
		if err := store.AddTransition(ctx, tr); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.EndSession(ctx, SessionRecord{ID: "s", EndedAt: t0.Add(time.Second), FinalState: guidance.TooFar}); err != nil {
		t.Fatal(err)
	}

	got, err := store.Transitions(ctx, "s")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].To != guidance.Ideal || got[1].To != guidance.TooFar {
		t.Fatalf("transitions = %+v, want ideal then too_far", got)
	}

	durs, err := store.StateDurations(ctx, "s", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	want := map[guidance.State]time.Duration{
		guidance.Searching: 500 * time.Millisecond,
		guidance.Ideal:     50 * time.Millisecond,
		guidance.TooFar:    450 * time.Millisecond,
	}
	for state, d := range want {
		if durs[state] != d {
			t.Errorf("%s = %v, want %v", state, durs[state], d)
		}
	}

	// Sessions starting within the same second sort by their fraction.
	if err := store.StartSession(ctx, "later", t0.Add(100*time.Millisecond), "front"); err != nil {
		t.Fatal(err)
	}
	recs, err := store.RecentSessions(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != "later" {
		t.Errorf("newest session = %+v, want later first", recs)
	}
}

func TestRecorderWritesObserverEvents(t *testing.T) {
	store := openTemp(t)
	rec := NewRecorder(store, 16, nil)

	id := uuid.New()
	t0 := time.Now().Add(-5 * time.Second)
	st := pipeline.Status{ID: id, State: guidance.Searching, Facing: "front", StartedAt: t0}

	// A state change may be observed before the start; the journal copes.
	rec.StateChanged(id, guidance.AlertEvent{
		State:         guidance.TooFar,
		Previous:      guidance.Searching,
		Timestamp:     t0.Add(time.Second),
		IsStateChange: true,
		DistanceCm:    48,
	})
	rec.SessionStarted(st)

	st.State = guidance.TooFar
	st.Metrics.FramesIn = 150
	st.Metrics.Transitions = 1
	st.Alerts.Dispatched = 1
	rec.SessionStopped(st)
	rec.Close()
	rec.Close() // Idempotent

	ctx := context.Background()
	recs, err := store.RecentSessions(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("sessions = %d, want 1", len(recs))
	}
	got := recs[0]
	if got.ID != id.String() || got.FinalState != guidance.TooFar || got.Frames != 150 || got.Alerts != 1 {
		t.Errorf("record = %+v", got)
	}
	if got.EndedAt.IsZero() {
		t.Error("session should be ended")
	}

	trs, err := store.Transitions(ctx, id.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(trs) != 1 || trs[0].To != guidance.TooFar || trs[0].DistanceCm != 48 {
		t.Errorf("transitions = %+v", trs)
	}
}
