package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/teslashibe/cleargaze/pkg/guidance"
)

// Palette
var (
	ColorIdeal   = lipgloss.Color("#00CC66")
	ColorWarning = lipgloss.Color("#FFAA00")
	ColorDanger  = lipgloss.Color("#FF4D4F")
	ColorMuted   = lipgloss.Color("#6E6E6E")
	ColorText    = lipgloss.Color("#F0F0F0")
	ColorBorder  = lipgloss.Color("#4A4A4A")
	ColorAccent  = lipgloss.Color("#C89A3A")
)

var (
	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1)

	StyleBanner = lipgloss.NewStyle().
			Bold(true).
			Padding(1, 4).
			Border(lipgloss.RoundedBorder(), true).
			Align(lipgloss.Center)

	StyleCard = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(ColorBorder)

	StyleLabel = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleValue = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleHelp  = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleError = lipgloss.NewStyle().Foreground(ColorDanger)

	StyleBand   = lipgloss.NewStyle().Foreground(ColorIdeal)
	StyleTrack  = lipgloss.NewStyle().Foreground(ColorBorder)
	StyleMarker = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
)

// StateColor is the banner colour for a state.
func StateColor(s guidance.State) lipgloss.Color {
	switch s {
	case guidance.Ideal:
		return ColorIdeal
	case guidance.TooClose, guidance.TooFar:
		return ColorWarning
	case guidance.Lost:
		return ColorDanger
	default:
		return ColorMuted
	}
}

// StateLabel is the banner text for a state.
func StateLabel(s guidance.State) string {
	switch s {
	case guidance.Ideal:
		return "GOOD DISTANCE"
	case guidance.TooClose:
		return "TOO CLOSE"
	case guidance.TooFar:
		return "TOO FAR"
	case guidance.Lost:
		return "FACE LOST"
	default:
		return "SEARCHING"
	}
}
