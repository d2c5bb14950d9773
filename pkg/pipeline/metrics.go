package pipeline

import (
	"sync"
	"time"
)

// Metrics are per-session pipeline counters and latencies.
type Metrics struct {
	FramesIn        int64 `json:"frames_in"`
	FramesDropped   int64 `json:"frames_dropped"`
	FacesFound      int64 `json:"faces_found"`
	NoFace          int64 `json:"no_face"`
	LocateErrors    int64 `json:"locate_errors"`
	SamplesAccepted int64 `json:"samples_accepted"`
	SamplesRejected int64 `json:"samples_rejected"`
	Transitions     int64 `json:"transitions"`

	// Averages over the last historySize located frames
	LocateLatency time.Duration `json:"locate_latency"` // Locator call duration
	FrameLatency  time.Duration `json:"frame_latency"`  // Capture to classification
}

const historySize = 100

type latencySample struct {
	locate time.Duration
	frame  time.Duration
}

// MetricsCollector collects pipeline metrics.
// It is goroutine-safe: the camera pump, the processing goroutine and
// status readers all touch it.
type MetricsCollector struct {
	mu      sync.Mutex
	current Metrics
	history []latencySample // Ring of recent latencies
	next    int
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		history: make([]latencySample, 0, historySize),
	}
}

// FrameIn counts a frame from the camera; dropped marks a queue eviction.
func (m *MetricsCollector) FrameIn(dropped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.FramesIn++
	if dropped {
		m.current.FramesDropped++
	}
}

// Located records a finished locator call.
func (m *MetricsCollector) Located(found bool, err error, locate, frame time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case err != nil:
		m.current.LocateErrors++
	case found:
		m.current.FacesFound++
	default:
		m.current.NoFace++
	}

	s := latencySample{locate: locate, frame: frame}
	if len(m.history) < historySize {
		m.history = append(m.history, s)
	} else {
		m.history[m.next] = s
	}
	m.next = (m.next + 1) % historySize
}

// Sample counts a distance sample offered to the smoother.
func (m *MetricsCollector) Sample(accepted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if accepted {
		m.current.SamplesAccepted++
	} else {
		m.current.SamplesRejected++
	}
}

// Transition counts a state change.
func (m *MetricsCollector) Transition() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Transitions++
}

// Snapshot returns counters plus average latencies.
func (m *MetricsCollector) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.current
	if len(m.history) == 0 {
		return out
	}
	var locate, frame time.Duration
	for _, h := range m.history {
		locate += h.locate
		frame += h.frame
	}
	n := time.Duration(len(m.history))
	out.LocateLatency = locate / n
	out.FrameLatency = frame / n
	return out
}

// FormatLatency returns a one-line latency summary.
func (m *Metrics) FormatLatency() string {
	return formatDuration(m.LocateLatency) + " locate | " +
		formatDuration(m.FrameLatency) + " frame"
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "---ms"
	}
	return d.Round(time.Millisecond).String()
}
