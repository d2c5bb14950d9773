package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	deadline := time.Now().Add(time.Second)
	for !h.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("hub did not start")
		}
		time.Sleep(time.Millisecond)
	}
	return h, cancel
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients: got %d, want %d", h.ClientCount(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHub_SubscribeBroadcast(t *testing.T) {
	h, stop := startHub(t)
	defer stop()

	ctx := context.Background()
	a, cancelA := h.Subscribe(ctx)
	b, cancelB := h.Subscribe(ctx)
	defer cancelB()

	waitClients(t, h, 2)

	env := Envelope{Type: TypeState, Session: "abc", Timestamp: time.Unix(0, 0).UTC(), Payload: map[string]string{"state": "ideal"}}
	if err := h.BroadcastJSON(env); err != nil {
		t.Fatalf("BroadcastJSON failed: %v", err)
	}

	for name, ch := range map[string]<-chan Message{"a": a, "b": b} {
		select {
		case msg := <-ch:
			var got Envelope
			if err := json.Unmarshal(msg.Data, &got); err != nil {
				t.Fatalf("%s: bad json: %v", name, err)
			}
			if got.Type != TypeState || got.Session != "abc" {
				t.Errorf("%s: got %+v", name, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s: no message", name)
		}
	}

	cancelA()
	cancelA() // idempotent
	if _, ok := <-a; ok {
		t.Error("channel should be closed after cancel")
	}
	waitClients(t, h, 1)
}

func TestHub_StopClosesSubscribers(t *testing.T) {
	h, stop := startHub(t)
	ch, cancel := h.Subscribe(context.Background())
	stop()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber not closed on stop")
	}
	cancel() // must not block after the hub stopped

	late, _ := h.Subscribe(context.Background())
	if _, ok := <-late; ok {
		t.Error("subscribe after stop should return a closed channel")
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	h, stop := startHub(t)
	defer stop()

	ch, cancel := h.Subscribe(context.Background())
	defer cancel()
	waitClients(t, h, 1)

	// Buffer is 64; never read.
	for i := 0; i < 100; i++ {
		h.BroadcastJSON(Envelope{Type: TypeAlert})
		time.Sleep(100 * time.Microsecond)
	}

	waitClients(t, h, 0)
	n := 0
	for range ch {
		n++
	}
	if n != 64 {
		t.Errorf("buffered before drop: got %d, want 64", n)
	}
}
