package guidance

import (
	"testing"
	"time"
)

func estimate(cm float64) SmoothedEstimate {
	return SmoothedEstimate{DistanceCm: cm, SampleCount: 1}
}

// settle drives a fresh classifier into Ideal and returns the time used.
func settle(t *testing.T, c *Classifier) int {
	t.Helper()
	var ev AlertEvent
	var ok bool
	ms := 0
	for i := 0; i < c.cfg.DebounceSamples; i++ {
		ms += 100
		ev, ok = c.Update(at(ms), estimate(30), true)
	}
	if !ok || ev.State != Ideal || ev.Previous != Searching {
		t.Fatalf("settle: got %+v/%v, want Searching -> Ideal", ev, ok)
	}
	return ms
}

func TestConfig_Classify(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		cm   float64
		want State
	}{
		{24.9, TooClose},
		{25, Ideal},
		{30, Ideal},
		{35, Ideal},
		{35.1, TooFar},
		{80, TooFar},
	}
	for _, tc := range tests {
		if got := cfg.Classify(tc.cm); got != tc.want {
			t.Errorf("Classify(%.1f) = %v, want %v", tc.cm, got, tc.want)
		}
	}
}

func TestClassifier_DebouncedTransition(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	ms := settle(t, c)

	for i, cm := range []float64{36, 37} {
		ms += 100
		if ev, ok := c.Update(at(ms), estimate(cm), true); ok {
			t.Fatalf("estimate %d emitted early: %+v", i, ev)
		}
	}
	ms += 100
	ev, ok := c.Update(at(ms), estimate(38), true)
	if !ok {
		t.Fatal("third agreeing estimate should transition")
	}
	if ev.State != TooFar || ev.Previous != Ideal || !ev.IsStateChange {
		t.Errorf("event: got %+v, want Ideal -> TooFar", ev)
	}
	if ev.DistanceCm != 38 {
		t.Errorf("distance: got %.1f, want 38", ev.DistanceCm)
	}
	if !ev.Timestamp.Equal(at(ms)) {
		t.Errorf("timestamp: got %v, want %v", ev.Timestamp, at(ms))
	}
	if c.State() != TooFar {
		t.Errorf("state: got %v, want too_far", c.State())
	}
}

func TestClassifier_InterruptedRun(t *testing.T) {
	tests := []struct {
		name  string
		input []float64 // 0 means insufficient data
	}{
		{"agreeing estimate resets", []float64{40, 40, 30, 40, 40}},
		{"insufficient data resets", []float64{40, 40, 0, 40, 40}},
		{"alternating classes", []float64{20, 40, 20, 40, 20, 40}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClassifier(DefaultConfig())
			ms := settle(t, c)
			for _, cm := range tc.input {
				ms += 100
				if ev, ok := c.Update(at(ms), estimate(cm), cm != 0); ok {
					t.Fatalf("unexpected event %+v", ev)
				}
			}
			if c.State() != Ideal {
				t.Errorf("state: got %v, want ideal", c.State())
			}
		})
	}
}

func TestClassifier_NoRepeatEmission(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	ms := settle(t, c)
	for i := 0; i < 50; i++ {
		ms += 33
		if ev, ok := c.Update(at(ms), estimate(31), true); ok {
			t.Fatalf("steady input emitted %+v", ev)
		}
	}
}

func TestClassifier_Lost(t *testing.T) {
	c := NewClassifier(DefaultConfig()) // LostGrace 1.5s
	ms := settle(t, c)

	if _, ok := c.Update(at(ms+1500), SmoothedEstimate{}, false); ok {
		t.Fatal("Lost should not fire at exactly the grace period")
	}
	ev, ok := c.Update(at(ms+1600), SmoothedEstimate{}, false)
	if !ok || ev.State != Lost || ev.Previous != Ideal {
		t.Fatalf("got %+v/%v, want Ideal -> Lost", ev, ok)
	}
	if ev.DistanceCm != 0 {
		t.Errorf("lost distance: got %.1f, want 0", ev.DistanceCm)
	}
	if _, ok := c.Update(at(ms+5000), SmoothedEstimate{}, false); ok {
		t.Error("Lost must be emitted once")
	}
}

func TestClassifier_ResumeFromLost(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	ms := settle(t, c)
	ms += 2000
	if ev, ok := c.Update(at(ms), SmoothedEstimate{}, false); !ok || ev.State != Lost {
		t.Fatalf("expected Lost, got %+v/%v", ev, ok)
	}

	// Face returns too close; resumption is debounced like any other move.
	for i := 0; i < 2; i++ {
		ms += 100
		if ev, ok := c.Update(at(ms), estimate(20), true); ok {
			t.Fatalf("resumed before debounce: %+v", ev)
		}
	}
	ms += 100
	ev, ok := c.Update(at(ms), estimate(20), true)
	if !ok || ev.State != TooClose || ev.Previous != Lost {
		t.Errorf("got %+v/%v, want Lost -> TooClose", ev, ok)
	}
}

func TestClassifier_SearchingNeverLost(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	for ms := 0; ms <= 10000; ms += 100 {
		if ev, ok := c.Update(at(ms), SmoothedEstimate{}, false); ok {
			t.Fatalf("unexpected event %+v", ev)
		}
	}
	if c.State() != Searching {
		t.Errorf("state: got %v, want searching", c.State())
	}
}

func TestClassifier_Reset(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	settle(t, c)
	c.Reset()
	if c.State() != Searching {
		t.Errorf("state after reset: got %v, want searching", c.State())
	}
	settle(t, c)
}

// TestSmoothedClassification runs raw samples through the smoother and the
// classifier together, the way a session does.
func TestSmoothedClassification(t *testing.T) {
	cfg := DefaultConfig()
	s := NewSmoother(cfg.SmoothingWindow)
	c := NewClassifier(cfg)

	var events []AlertEvent
	feed := func(ms int, cm float64) {
		s.Add(sample(ms, cm))
		est, ok := s.Estimate(at(ms))
		if ev, emitted := c.Update(at(ms), est, ok); emitted {
			events = append(events, ev)
		}
	}

	ms := 0
	for _, cm := range []float64{30, 30, 30} {
		ms += 100
		feed(ms, cm)
	}
	// A single-frame glitch is absorbed by the median.
	for _, cm := range []float64{30, 30, 60, 30, 30} {
		ms += 100
		feed(ms, cm)
	}

	if len(events) != 1 || events[0].State != Ideal {
		t.Fatalf("events: got %+v, want single Searching -> Ideal", events)
	}

	// Face disappears: the window drains, then Lost fires after the grace period.
	for i := 0; i < 40; i++ {
		ms += 100
		est, ok := s.Estimate(at(ms))
		if ev, emitted := c.Update(at(ms), est, ok); emitted {
			events = append(events, ev)
		}
	}
	if len(events) != 2 || events[1].State != Lost {
		t.Fatalf("events: got %+v, want Lost as second event", events)
	}
}

func TestStateText(t *testing.T) {
	for _, s := range []State{Searching, TooClose, TooFar, Ideal, Lost} {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", s, err)
		}
		var back State
		if err := back.UnmarshalText(text); err != nil || back != s {
			t.Errorf("round trip %v: got %v, %v", s, back, err)
		}
	}
	if _, err := ParseState("asleep"); err == nil {
		t.Error("expected error for unknown state")
	}
	if !Ideal.IsClassified() || Lost.IsClassified() || Searching.IsClassified() {
		t.Error("IsClassified mismatch")
	}
}

func TestConfigValidate(t *testing.T) {
	for _, name := range []string{"default", "relaxed", "strict"} {
		cfg, ok := Preset(name)
		if !ok {
			t.Fatalf("preset %q missing", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %q invalid: %v", name, err)
		}
	}

	tests := []struct {
		name   string
		field  string
		modify func(*Config)
	}{
		{"zero ideal", "ideal_distance_cm", func(c *Config) { c.IdealDistanceCm = 0 }},
		{"negative tolerance", "tolerance_cm", func(c *Config) { c.ToleranceCm = -1 }},
		{"tolerance too wide", "tolerance_cm", func(c *Config) { c.ToleranceCm = 30 }},
		{"confidence above one", "min_face_confidence", func(c *Config) { c.MinFaceConfidence = 1.2 }},
		{"zero window", "smoothing_window", func(c *Config) { c.SmoothingWindow = 0 }},
		{"zero debounce", "debounce_samples", func(c *Config) { c.DebounceSamples = 0 }},
		{"zero grace", "lost_grace", func(c *Config) { c.LostGrace = 0 }},
		{"negative cooldown", "alert_cooldown", func(c *Config) { c.AlertCooldown = -time.Second }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := cfg.Validate()
			cerr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("got %v, want *ConfigError", err)
			}
			if cerr.Field != tc.field {
				t.Errorf("field: got %q, want %q", cerr.Field, tc.field)
			}
		})
	}
}
