package guidance

import "time"

// Classifier maps smoothed estimates onto guidance states.
//
// A move to a classified state commits only after DebounceSamples
// consecutive estimates agree on it. Lost is entered once a classified
// session has gone LostGrace without a valid estimate.
type Classifier struct {
	cfg Config

	state     State
	lastValid time.Time

	pending    State
	pendingRun int
}

// NewClassifier creates a classifier in the Searching state.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// State returns the current state.
func (c *Classifier) State() State {
	return c.state
}

// Update feeds one smoothed estimate (ok == false means insufficient data)
// and returns an event only when the state changes.
func (c *Classifier) Update(now time.Time, est SmoothedEstimate, ok bool) (AlertEvent, bool) {
	if !ok {
		c.pendingRun = 0
		if c.state.IsClassified() && now.Sub(c.lastValid) > c.cfg.LostGrace {
			return c.transition(now, Lost, 0), true
		}
		return AlertEvent{}, false
	}

	c.lastValid = now
	class := c.cfg.Classify(est.DistanceCm)
	if class == c.state {
		c.pendingRun = 0
		return AlertEvent{}, false
	}

	if c.pendingRun > 0 && class == c.pending {
		c.pendingRun++
	} else {
		c.pending = class
		c.pendingRun = 1
	}

	if c.pendingRun < c.cfg.DebounceSamples {
		return AlertEvent{}, false
	}
	return c.transition(now, class, est.DistanceCm), true
}

// Reset returns the classifier to Searching.
func (c *Classifier) Reset() {
	c.state = Searching
	c.lastValid = time.Time{}
	c.pendingRun = 0
}

func (c *Classifier) transition(now time.Time, to State, distance float64) AlertEvent {
	ev := AlertEvent{
		State:         to,
		Previous:      c.state,
		Timestamp:     now,
		IsStateChange: true,
		DistanceCm:    distance,
	}
	c.state = to
	c.pendingRun = 0
	return ev
}
