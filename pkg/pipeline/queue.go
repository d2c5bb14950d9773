package pipeline

import (
	"sync"
	"sync/atomic"

	"github.com/teslashibe/cleargaze/pkg/camera"
)

// DefaultQueueCapacity keeps at most two frames between camera and locator.
const DefaultQueueCapacity = 2

// FrameQueue is a bounded hand-off between the camera goroutine and the
// processing goroutine. When full, Push discards the oldest frame so the
// consumer always works on the freshest image.
type FrameQueue struct {
	mu      sync.Mutex
	frames  []camera.Frame
	cap     int
	ready   chan struct{}
	dropped atomic.Int64
}

// NewFrameQueue creates a queue holding up to capacity frames (minimum 1).
func NewFrameQueue(capacity int) *FrameQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &FrameQueue{
		frames: make([]camera.Frame, 0, capacity),
		cap:    capacity,
		ready:  make(chan struct{}, 1),
	}
}

// Push adds a frame without blocking. It reports whether an older frame
// was discarded to make room.
func (q *FrameQueue) Push(f camera.Frame) bool {
	q.mu.Lock()
	dropped := false
	if len(q.frames) == q.cap {
		copy(q.frames, q.frames[1:])
		q.frames = q.frames[:len(q.frames)-1]
		dropped = true
		q.dropped.Add(1)
	}
	q.frames = append(q.frames, f)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return dropped
}

// Pop removes the oldest frame.
func (q *FrameQueue) Pop() (camera.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.frames) == 0 {
		return camera.Frame{}, false
	}
	f := q.frames[0]
	copy(q.frames, q.frames[1:])
	q.frames[len(q.frames)-1] = camera.Frame{}
	q.frames = q.frames[:len(q.frames)-1]
	return f, true
}

// Ready is signalled after every Push. One signal may cover several frames.
func (q *FrameQueue) Ready() <-chan struct{} {
	return q.ready
}

// Len returns the number of queued frames.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Dropped returns how many frames were discarded.
func (q *FrameQueue) Dropped() int64 {
	return q.dropped.Load()
}

// Clear discards all queued frames.
func (q *FrameQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.frames {
		q.frames[i] = camera.Frame{}
	}
	q.frames = q.frames[:0]
}
