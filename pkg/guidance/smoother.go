package guidance

import (
	"sort"
	"time"
)

// Smoother keeps a trailing time window of samples and reports their median.
// The median resists single-frame landmark glitches better than a mean.
type Smoother struct {
	window   time.Duration
	samples  []DistanceSample // Ordered by timestamp
	last     time.Time        // Newest accepted timestamp
	rejected int
	scratch  []float64
}

// NewSmoother creates a smoother over the given window.
func NewSmoother(window time.Duration) *Smoother {
	return &Smoother{window: window}
}

// Add inserts a sample. Samples older than the newest accepted sample, and
// samples with a non-finite or non-positive distance, are rejected.
func (s *Smoother) Add(sample DistanceSample) bool {
	if !positive(sample.DistanceCm) || (!s.last.IsZero() && sample.Timestamp.Before(s.last)) {
		s.rejected++
		return false
	}
	s.samples = append(s.samples, sample)
	s.last = sample.Timestamp
	s.expire(sample.Timestamp)
	return true
}

// Estimate returns the median of the samples inside (now - window, now].
// It returns false when the window is empty.
func (s *Smoother) Estimate(now time.Time) (SmoothedEstimate, bool) {
	s.expire(now)
	if len(s.samples) == 0 {
		return SmoothedEstimate{}, false
	}

	s.scratch = s.scratch[:0]
	for _, sm := range s.samples {
		s.scratch = append(s.scratch, sm.DistanceCm)
	}
	return SmoothedEstimate{
		DistanceCm:  median(s.scratch),
		SampleCount: len(s.samples),
		LastUpdate:  s.last,
	}, true
}

// Rejected returns how many samples were refused since the last Reset.
func (s *Smoother) Rejected() int {
	return s.rejected
}

// Len returns the number of samples currently held.
func (s *Smoother) Len() int {
	return len(s.samples)
}

// Reset drops all samples and counters.
func (s *Smoother) Reset() {
	s.samples = s.samples[:0]
	s.last = time.Time{}
	s.rejected = 0
}

func (s *Smoother) expire(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.samples) && !s.samples[i].Timestamp.After(cutoff) {
		i++
	}
	if i > 0 {
		s.samples = append(s.samples[:0], s.samples[i:]...)
	}
}

// median sorts vals in place.
func median(vals []float64) float64 {
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
