package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/teslashibe/cleargaze/pkg/alert"
)

// TickMsg triggers a status poll.
type TickMsg time.Time

// AlertMsg carries a dispatched visual notification.
type AlertMsg alert.Notification

// SwitchedMsg reports the outcome of a camera switch.
type SwitchedMsg struct {
	Err error
}

// Notifier returns a visual-channel callback that forwards notifications
// into a running program. p.Send blocks until the program reads, so the
// send happens off the caller's goroutine.
func Notifier(p *tea.Program) func(alert.Notification) {
	return func(n alert.Notification) {
		go p.Send(AlertMsg(n))
	}
}
