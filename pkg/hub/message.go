// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import "time"

// Message types sent to status clients.
const (
	TypeState   = "state"   // Session state change
	TypeAlert   = "alert"   // Dispatched alert notification
	TypeVibrate = "vibrate" // Haptic pattern for phone companions
	TypeSession = "session" // Session started or stopped
)

// Message is a pre-encoded JSON frame broadcast to every client.
type Message struct {
	Data []byte
}

// Envelope is the JSON shape of every broadcast.
type Envelope struct {
	Type      string    `json:"type"`
	Session   string    `json:"session,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}
