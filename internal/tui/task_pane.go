package tui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/hummbl-dev/flowcore/internal/events"
)

// TaskState tracks the display state of a single task.
type TaskState struct {
	TaskID    string
	Name      string
	AgentID   string
	Status    string // "running", "retrying", "completed", "failed"
	Lines     []string
	StartTime time.Time
	Duration  time.Duration
	Attempts  int
}

// TaskPaneModel is the task list and detail viewport pane.
type TaskPaneModel struct {
	tasks       map[string]*TaskState // taskID -> state
	taskOrder   []string              // insertion order for display
	selectedIdx int
	viewport    viewport.Model
	width       int
	height      int
	focused     bool
}

// NewTaskPaneModel creates a new task pane model.
func NewTaskPaneModel() TaskPaneModel {
	vp := viewport.New(0, 0)
	return TaskPaneModel{
		tasks:    make(map[string]*TaskState),
		viewport: vp,
	}
}

// Update handles messages for the task pane.
func (m TaskPaneModel) Update(msg tea.Msg) (TaskPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case tea.KeyMsg:
		if !m.focused {
			break
		}

		switch msg.String() {
		case KeyJ, KeyDown:
			if m.selectedIdx < len(m.taskOrder)-1 {
				m.selectedIdx++
				m.updateViewportContent()
			}
		case KeyK, KeyUp:
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.updateViewportContent()
			}
		default:
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case events.TaskStartedEvent:
		if _, exists := m.tasks[msg.ID]; !exists {
			m.tasks[msg.ID] = &TaskState{
				TaskID:    msg.ID,
				Name:      msg.Name,
				AgentID:   msg.AgentID,
				Status:    "running",
				Lines:     []string{fmt.Sprintf("Dispatched to agent %s", msg.AgentID)},
				StartTime: msg.Timestamp,
				Attempts:  1,
			}
			m.taskOrder = append(m.taskOrder, msg.ID)
			if len(m.taskOrder) == 1 {
				m.selectedIdx = 0
				m.updateViewportContent()
			}
		}

	case events.TaskRetryingEvent:
		if task, exists := m.tasks[msg.ID]; exists {
			task.Status = "retrying"
			task.Attempts = msg.Attempt + 1
			task.Lines = append(task.Lines, fmt.Sprintf("Attempt %d failed: %s", msg.Attempt, msg.Err))
			if m.selectedTaskID() == msg.ID {
				m.updateViewportContent()
			}
		}

	case events.TaskCompletedEvent:
		if task, exists := m.tasks[msg.ID]; exists {
			task.Status = "completed"
			task.Duration = msg.Duration
			task.Lines = append(task.Lines, "", renderOutput(msg.Output), "", fmt.Sprintf("[Completed in %v]", msg.Duration))
			if m.selectedTaskID() == msg.ID {
				m.updateViewportContent()
			}
		}

	case events.TaskFailedEvent:
		if task, exists := m.tasks[msg.ID]; exists {
			task.Status = "failed"
			task.Duration = msg.Duration
			task.Lines = append(task.Lines, "", fmt.Sprintf("[Failed after %d retries: %s]", msg.RetryCount, msg.Err))
			if m.selectedTaskID() == msg.ID {
				m.updateViewportContent()
			}
		}
	}

	return m, cmd
}

// renderOutput pretty-prints a task's output document for the viewport.
func renderOutput(output map[string]any) string {
	if len(output) == 0 {
		return "(no output)"
	}
	raw, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", output)
	}
	return string(raw)
}

// View renders the task pane.
func (m TaskPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	listWidth := 25
	viewportWidth := m.width - listWidth - 4 // account for borders and padding

	listContent := m.renderTaskList(listWidth)
	viewportContent := m.viewport.View()

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		listContent,
		lipgloss.NewStyle().
			Width(viewportWidth).
			Height(m.height-2).
			Render(viewportContent),
	)

	return PaneBorder(m.focused).
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

// renderTaskList renders the task list column.
func (m TaskPaneModel) renderTaskList(width int) string {
	var b strings.Builder

	title := StyleTitle.Render("Tasks")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", min(width, lipgloss.Width(title))))
	b.WriteString("\n\n")

	if len(m.taskOrder) == 0 {
		b.WriteString(StyleStatusIdle.Render("Waiting..."))
	} else {
		for i, taskID := range m.taskOrder {
			task := m.tasks[taskID]
			icon := m.StatusIcon(task.Status)
			name := task.Name
			if len(name) > width-6 {
				name = name[:width-9] + "..."
			}

			line := fmt.Sprintf("%s %s", icon, name)
			if i == m.selectedIdx {
				line = StyleSelected.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(m.height - 2).
		Render(b.String())
}

// StatusIcon returns a status indicator styled per the task's state.
func (m TaskPaneModel) StatusIcon(status string) string {
	var icon string
	switch status {
	case "running":
		icon = "●"
	case "retrying":
		icon = "↻"
	case "completed":
		icon = "✓"
	case "failed":
		icon = "✗"
	default:
		icon = "○"
	}
	return StatusStyle(status).Render(icon)
}

// selectedTaskID returns the task ID of the currently selected row.
func (m TaskPaneModel) selectedTaskID() string {
	if m.selectedIdx >= 0 && m.selectedIdx < len(m.taskOrder) {
		return m.taskOrder[m.selectedIdx]
	}
	return ""
}

// updateViewportContent updates the viewport with the selected task's detail.
func (m *TaskPaneModel) updateViewportContent() {
	taskID := m.selectedTaskID()
	if taskID == "" {
		m.viewport.SetContent("Waiting for tasks...")
		return
	}

	task, exists := m.tasks[taskID]
	if !exists {
		m.viewport.SetContent("Waiting for tasks...")
		return
	}

	m.viewport.SetContent(strings.Join(task.Lines, "\n"))
	m.viewport.GotoBottom()
}

// resizeViewport resizes the viewport based on pane dimensions.
func (m *TaskPaneModel) resizeViewport() {
	listWidth := 25
	viewportWidth := m.width - listWidth - 4
	viewportHeight := m.height - 4

	if viewportWidth < 10 {
		viewportWidth = 10
	}
	if viewportHeight < 5 {
		viewportHeight = 5
	}

	m.viewport.Width = viewportWidth
	m.viewport.Height = viewportHeight
}

// SetSize updates the pane dimensions.
func (m *TaskPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
}

// SetFocused updates the focus state.
func (m *TaskPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
