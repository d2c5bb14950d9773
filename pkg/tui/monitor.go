// Package tui renders the live distance monitor and session history in
// the terminal.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/teslashibe/cleargaze/pkg/guidance"
	"github.com/teslashibe/cleargaze/pkg/pipeline"
)

// Controller is what the monitor needs from the running session.
type Controller interface {
	Status() (pipeline.Status, error)
	// SwitchFacing restarts monitoring on the other camera.
	SwitchFacing() error
}

// PollInterval is how often the monitor refreshes the status.
const PollInterval = 100 * time.Millisecond

// alertHold is how long the last alert stays highlighted.
const alertHold = 3 * time.Second

// Model is the live monitor. It polls the controller and shows visual
// alerts pushed through Notifier.
type Model struct {
	width  int
	height int

	ctrl    Controller
	cfg     guidance.Config
	spinner spinner.Model

	status    pipeline.Status
	hasStatus bool
	lastAlert *AlertMsg
	now       time.Time
	err       error
	switching bool
}

// New creates a monitor for a session running with cfg.
func New(ctrl Controller, cfg guidance.Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)
	return Model{
		ctrl:    ctrl,
		cfg:     cfg,
		spinner: sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.now = time.Time(msg)
		st, err := m.ctrl.Status()
		if err != nil {
			m.err = err
		} else {
			m.status, m.hasStatus, m.err = st, true, nil
		}
		return m, tickCmd()

	case AlertMsg:
		n := msg
		m.lastAlert = &n
		return m, nil

	case SwitchedMsg:
		m.switching = false
		m.err = msg.Err
		m.lastAlert = nil
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c", "esc":
		return m, tea.Quit
	case "f", "F":
		if m.switching {
			return m, nil
		}
		m.switching = true
		ctrl := m.ctrl
		return m, func() tea.Msg {
			return SwitchedMsg{Err: ctrl.SwitchFacing()}
		}
	}
	return m, nil
}

func (m Model) View() string {
	width := m.width
	if width == 0 {
		width = 60
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("cleargaze"))
	if m.hasStatus {
		b.WriteString(StyleLabel.Render(fmt.Sprintf(" %s camera  session %s", m.status.Facing, shortID(m.status.ID.String()))))
	}
	b.WriteString("\n\n")

	state := m.status.State
	banner := StateLabel(state)
	if state == guidance.Searching || m.switching {
		banner = m.spinner.View() + " " + banner
	}
	b.WriteString(StyleBanner.
		Width(min(width-2, 40)).
		Foreground(StateColor(state)).
		BorderForeground(StateColor(state)).
		Render(banner))
	b.WriteString("\n\n")

	if m.hasStatus && !m.status.Calibrated {
		b.WriteString(StyleError.Render("Calibration missing: run `cleargaze calibrate` to enable distance estimates."))
		b.WriteString("\n\n")
	}

	distance := "--"
	if m.status.HasEstimate {
		distance = fmt.Sprintf("%.1f cm", m.status.DistanceCm)
	}
	b.WriteString(StyleLabel.Render("Distance ") + StyleValue.Render(distance))
	b.WriteString(StyleLabel.Render(fmt.Sprintf("   target %.0f ± %.0f cm", m.cfg.IdealDistanceCm, m.cfg.ToleranceCm)))
	b.WriteString("\n")
	b.WriteString(Gauge(m.status.DistanceCm, m.status.HasEstimate, m.cfg, min(width-2, 60)))
	b.WriteString("\n\n")

	b.WriteString(m.metricsCard())
	b.WriteString("\n")

	if m.lastAlert != nil && (m.now.IsZero() || m.now.Sub(m.lastAlert.Timestamp) < alertHold) {
		b.WriteString(lipgloss.NewStyle().Foreground(StateColor(m.lastAlert.State)).Bold(true).
			Render("▶ " + m.lastAlert.Message))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(StyleError.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleHelp.Render("f switch camera • q quit"))
	return b.String()
}

func (m Model) metricsCard() string {
	mt := m.status.Metrics
	line := func(label, value string) string {
		return StyleLabel.Render(fmt.Sprintf("%-10s", label)) + StyleValue.Render(value)
	}
	rows := []string{
		line("frames", fmt.Sprintf("%d in / %d dropped", mt.FramesIn, mt.FramesDropped)),
		line("faces", fmt.Sprintf("%d found / %d missed", mt.FacesFound, mt.NoFace)),
		line("latency", mt.FormatLatency()),
		line("alerts", fmt.Sprintf("%d sent / %d held", m.status.Alerts.Dispatched, m.status.Alerts.Suppressed)),
	}
	return StyleCard.Render(strings.Join(rows, "\n"))
}

// Gauge draws a horizontal distance scale from 0 to twice the ideal
// distance with the tolerance band highlighted and a marker at distanceCm.
func Gauge(distanceCm float64, ok bool, cfg guidance.Config, width int) string {
	if width < 10 {
		width = 10
	}
	span := 2 * cfg.IdealDistanceCm
	if span <= 0 {
		return ""
	}
	pos := func(cm float64) int {
		p := int(cm / span * float64(width-1))
		return max(0, min(width-1, p))
	}
	lo := pos(cfg.IdealDistanceCm - cfg.ToleranceCm)
	hi := pos(cfg.IdealDistanceCm + cfg.ToleranceCm)
	marker := -1
	if ok {
		marker = pos(distanceCm)
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == marker:
			b.WriteString(StyleMarker.Render("●"))
		case i >= lo && i <= hi:
			b.WriteString(StyleBand.Render("═"))
		default:
			b.WriteString(StyleTrack.Render("─"))
		}
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func tickCmd() tea.Cmd {
	return tea.Tick(PollInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
