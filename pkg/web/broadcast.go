package web

import (
	"time"

	"github.com/teslashibe/cleargaze/pkg/guidance"
	"github.com/teslashibe/cleargaze/pkg/hub"
	"github.com/teslashibe/cleargaze/pkg/pipeline"
)

// Broadcaster mirrors pipeline events onto a status hub.
type Broadcaster struct {
	Hub *hub.Hub
}

// SessionEvent is the payload of a session envelope.
type SessionEvent struct {
	Event  string          `json:"event"` // "started" or "stopped"
	Status pipeline.Status `json:"status"`
}

// SessionStarted implements pipeline.Observer.
func (b Broadcaster) SessionStarted(st pipeline.Status) {
	b.send(hub.TypeSession, st.ID.String(), time.Now(), SessionEvent{Event: "started", Status: st})
}

// StateChanged implements pipeline.Observer.
func (b Broadcaster) StateChanged(id pipeline.Handle, ev guidance.AlertEvent) {
	b.send(hub.TypeState, id.String(), ev.Timestamp, ev)
}

// SessionStopped implements pipeline.Observer.
func (b Broadcaster) SessionStopped(st pipeline.Status) {
	b.send(hub.TypeSession, st.ID.String(), time.Now(), SessionEvent{Event: "stopped", Status: st})
}

func (b Broadcaster) send(typ, session string, at time.Time, payload any) {
	if b.Hub == nil {
		return
	}
	_ = b.Hub.BroadcastJSON(hub.Envelope{
		Type:      typ,
		Session:   session,
		Timestamp: at,
		Payload:   payload,
	})
}

var _ pipeline.Observer = Broadcaster{}
