package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/hard75/internal/constants"
)

var (
	errEmptyTask = errors.New("task text is required")
	errLongTask  = fmt.Errorf("task text must be at most %d characters", constants.MaxTaskTextLen)
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateToday:
		content = docStyle.Render(m.checklist.View())
	case StateTasks:
		content = docStyle.Render(m.taskList.View())
	case StateStats:
		content = docStyle.Render(m.summaryModel.View())
	case StateEditing:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	active := m.state
	if active == StateEditing || active == StateConfirmDelete {
		active = StateTasks
	}
	var tabs []string
	for i, title := range []string{"Today", "Tasks", "Stats"} {
		if active == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewStatus() string {
	var parts []string
	if m.status.IsOnline {
		parts = append(parts, onlineStyle.Render("● online"))
	} else {
		parts = append(parts, offlineStyle.Render("● offline"))
	}
	if m.status.PendingChanges > 0 {
		parts = append(parts, offlineStyle.Render(fmt.Sprintf("%d pending", m.status.PendingChanges)))
	}
	if m.fromCache {
		parts = append(parts, mutedStyle.Render("cached data"))
	}
	if m.message != "" {
		if m.messageIsErr {
			parts = append(parts, errorStyle.Render(m.message))
		} else {
			parts = append(parts, mutedStyle.Render(m.message))
		}
	}
	return " " + strings.Join(parts, mutedStyle.Render(" · "))
}

func (m Model) viewConfirmDelete() string {
	name := m.taskToDelete
	for _, t := range m.tasks {
		if t.ID == m.taskToDelete {
			name = t.TaskText
		}
	}
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("Delete this task?"),
			name,
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
