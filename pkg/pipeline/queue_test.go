package pipeline

import (
	"testing"

	"github.com/teslashibe/cleargaze/pkg/camera"
)

func TestFrameQueue_DropsOldest(t *testing.T) {
	q := NewFrameQueue(2)

	for seq := uint64(1); seq <= 5; seq++ {
		dropped := q.Push(camera.Frame{Seq: seq})
		if wantDrop := seq > 2; dropped != wantDrop {
			t.Errorf("push %d: dropped=%v, want %v", seq, dropped, wantDrop)
		}
		if q.Len() > 2 {
			t.Fatalf("queue exceeded capacity: %d", q.Len())
		}
	}

	if q.Dropped() != 3 {
		t.Errorf("dropped: got %d, want 3", q.Dropped())
	}
	for _, want := range []uint64{4, 5} {
		f, ok := q.Pop()
		if !ok || f.Seq != want {
			t.Errorf("pop: got %d/%v, want %d", f.Seq, ok, want)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("queue should be empty")
	}
}

func TestFrameQueue_ReadySignal(t *testing.T) {
	q := NewFrameQueue(1)
	select {
	case <-q.Ready():
		t.Fatal("empty queue should not be ready")
	default:
	}

	q.Push(camera.Frame{Seq: 1})
	q.Push(camera.Frame{Seq: 2}) // Coalesced into one signal
	select {
	case <-q.Ready():
	default:
		t.Fatal("expected ready signal")
	}
	select {
	case <-q.Ready():
		t.Fatal("signals should coalesce")
	default:
	}

	q.Clear()
	if q.Len() != 0 {
		t.Errorf("len after clear: got %d", q.Len())
	}
}

func TestFrameQueue_MinimumCapacity(t *testing.T) {
	q := NewFrameQueue(0)
	q.Push(camera.Frame{Seq: 1})
	if !q.Push(camera.Frame{Seq: 2}) {
		t.Error("capacity should be clamped to 1")
	}
}
