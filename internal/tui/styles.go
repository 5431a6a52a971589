package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// PaneBorder returns the rounded pane border, highlighted when the pane has
// focus.
func PaneBorder(focused bool) lipgloss.Style {
	color := lipgloss.Color("238")
	if focused {
		color = lipgloss.Color("39")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color)
}

// Styles for the display states the panes track: task states reported by the
// scheduler (running/retrying/completed/failed) plus the run-level
// paused/idle states.
var (
	StyleStatusRunning = lipgloss.NewStyle().
				Foreground(lipgloss.Color("yellow")).
				Bold(true)

	StyleStatusRetrying = lipgloss.NewStyle().
				Foreground(lipgloss.Color("208")).
				Bold(true)

	StyleStatusCompleted = lipgloss.NewStyle().
				Foreground(lipgloss.Color("green")).
				Bold(true)

	StyleStatusFailed = lipgloss.NewStyle().
				Foreground(lipgloss.Color("red")).
				Bold(true)

	StyleStatusPaused = lipgloss.NewStyle().
				Foreground(lipgloss.Color("cyan")).
				Bold(true)

	StyleStatusIdle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// StatusStyle maps a display state to its style. Unknown states render as
// idle.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "running":
		return StyleStatusRunning
	case "retrying":
		return StyleStatusRetrying
	case "completed":
		return StyleStatusCompleted
	case "failed":
		return StyleStatusFailed
	case "paused":
		return StyleStatusPaused
	default:
		return StyleStatusIdle
	}
}

// UI element styles
var (
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	StyleSelected = lipgloss.NewStyle().
			Background(lipgloss.Color("39")).
			Foreground(lipgloss.Color("0"))

	StyleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)
