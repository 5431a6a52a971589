package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hummbl-dev/flowcore/internal/events"
	"github.com/hummbl-dev/flowcore/internal/workflow"
)

// RunPaneModel is the run progress display pane.
type RunPaneModel struct {
	workflowID string
	total      int
	completed  int
	failed     int
	progress   float64
	status     string // "", "running", "paused", terminal execution status
	width      int
	height     int
	focused    bool
}

// NewRunPaneModel creates a new run pane model.
func NewRunPaneModel() RunPaneModel {
	return RunPaneModel{}
}

// Update handles messages for the run pane.
func (m RunPaneModel) Update(msg tea.Msg) (RunPaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case events.RunStartedEvent:
		m.workflowID = msg.WorkflowID
		m.total = msg.TotalTasks
		m.completed = 0
		m.failed = 0
		m.progress = 0
		m.status = "running"

	case events.RunProgressEvent:
		m.total = msg.Total
		m.completed = msg.Completed
		m.failed = msg.Failed
		m.progress = msg.Progress

	case events.RunPausedEvent:
		m.status = "paused"

	case events.RunResumedEvent:
		m.status = "running"

	case events.RunFinishedEvent:
		m.status = string(msg.Status)
		m.progress = msg.Progress
	}

	return m, nil
}

// View renders the run pane.
func (m RunPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := StyleTitle.Render("Run Progress")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n\n")

	if m.workflowID != "" {
		b.WriteString(fmt.Sprintf("Workflow:  %s\n", m.workflowID))
	}
	b.WriteString(fmt.Sprintf("Status:    %s\n", m.statusLabel()))
	b.WriteString(fmt.Sprintf("Total:     %d\n", m.total))
	b.WriteString(fmt.Sprintf("Completed: %s\n", StyleStatusCompleted.Render(fmt.Sprintf("%d", m.completed))))
	b.WriteString(fmt.Sprintf("Failed:    %s\n", StyleStatusFailed.Render(fmt.Sprintf("%d", m.failed))))
	b.WriteString(fmt.Sprintf("Pending:   %s\n", StyleStatusIdle.Render(fmt.Sprintf("%d", m.total-m.completed-m.failed))))

	b.WriteString("\n")

	if m.total > 0 {
		barWidth := min(m.width-4, 40)
		completedWidth := (m.completed * barWidth) / m.total
		failedWidth := (m.failed * barWidth) / m.total
		pendingWidth := barWidth - completedWidth - failedWidth

		bar := StyleStatusCompleted.Render(strings.Repeat("=", max(0, completedWidth)))
		bar += StyleStatusFailed.Render(strings.Repeat("!", max(0, failedWidth)))
		bar += StyleStatusIdle.Render(strings.Repeat(".", max(0, pendingWidth)))

		b.WriteString(fmt.Sprintf("[%s]  %.0f%%\n", bar, m.progress))
	}

	content := b.String()

	return PaneBorder(m.focused).
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

// statusLabel returns the styled run status line.
func (m RunPaneModel) statusLabel() string {
	switch m.status {
	case "", string(workflow.ExecutionPending):
		return StatusStyle("idle").Render("idle")
	case string(workflow.ExecutionRunning):
		return StatusStyle("running").Render("running")
	default:
		return StatusStyle(m.status).Render(m.status)
	}
}

// SetSize updates the pane dimensions.
func (m *RunPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *RunPaneModel) SetFocused(focused bool) {
	m.focused = focused
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
