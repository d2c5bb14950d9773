package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/teslashibe/cleargaze/pkg/journal"
)

// RenderHistory renders past sessions as a table.
func RenderHistory(recs []journal.SessionRecord, width int) string {
	if len(recs) == 0 {
		return StyleHelp.Render("No sessions recorded yet.")
	}
	columns := []table.Column{
		{Title: "Session", Width: 8},
		{Title: "Started", Width: 16},
		{Title: "Duration", Width: 9},
		{Title: "Camera", Width: 6},
		{Title: "Final", Width: 9},
		{Title: "Changes", Width: 7},
		{Title: "Alerts", Width: 6},
		{Title: "Frames", Width: 7},
	}
	rows := make([]table.Row, 0, len(recs))
	for _, r := range recs {
		dur := "running"
		if !r.EndedAt.IsZero() {
			dur = r.Duration().Round(time.Second).String()
		}
		rows = append(rows, table.Row{
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			dur,
			r.Facing,
			r.FinalState.String(),
			fmt.Sprintf("%d", r.Transitions),
			fmt.Sprintf("%d", r.Alerts),
			fmt.Sprintf("%d", r.Frames),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+3),
	)
	if width > 0 {
		t.SetWidth(width)
	}
	t.SetStyles(historyStyles())
	return t.View()
}

func historyStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(ColorBorder).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	// Non-interactive: the cursor row looks like any other.
	styles.Selected = styles.Cell
	return styles
}
