// Package checklist renders one day's tasks with their completion state.
package checklist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/models"
)

var (
	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Strikethrough(true)

	openStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	perfectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

const barWidth = 30

// ToggleMsg asks the parent to flip a task's completion for the shown day.
type ToggleMsg struct {
	TaskID    string
	Completed bool
}

type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter", "x"),
			key.WithHelp("space", "toggle"),
		),
	}
}

type Model struct {
	Tasks  []models.CustomTask
	Day    models.DayCompletions
	cursor int
	keys   KeyMap
}

func New() Model {
	return Model{keys: DefaultKeyMap()}
}

// SetDay replaces the tasks and completions shown. The cursor is kept when
// it is still in range.
func (m *Model) SetDay(tasks []models.CustomTask, day models.DayCompletions) {
	m.Tasks = tasks
	m.Day = day
	if m.cursor >= len(tasks) {
		m.cursor = len(tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Cursor is the index of the highlighted task.
func (m Model) Cursor() int {
	return m.cursor
}

func (m Model) Keys() KeyMap {
	return m.keys
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.Tasks) == 0 {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.Tasks)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Toggle):
		task := m.Tasks[m.cursor]
		toggle := ToggleMsg{TaskID: task.ID, Completed: !m.Day.IsCompleted(task.ID)}
		return m, func() tea.Msg { return toggle }
	}
	return m, nil
}

func (m Model) View() string {
	if len(m.Tasks) == 0 {
		return "\n  No tasks yet.\n  Add some on the Tasks tab."
	}

	var b strings.Builder
	p := m.Day.DailyProgress
	b.WriteString(headerStyle.Render(fmt.Sprintf("Day %d of %d · %s", p.DayNumber, constants.ChallengeDays, m.Day.Date)))
	b.WriteString("\n")
	b.WriteString(Bar(p.CompletedCount, p.TotalTasks, barWidth))
	b.WriteString(fmt.Sprintf(" %d/%d", p.CompletedCount, p.TotalTasks))
	if p.AllCompleted {
		b.WriteString("  " + perfectStyle.Render("All done for today!"))
	}
	b.WriteString("\n\n")

	for i, task := range m.Tasks {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		if m.Day.IsCompleted(task.ID) {
			b.WriteString(cursor + doneStyle.Render("[x] "+task.TaskText))
		} else {
			b.WriteString(cursor + openStyle.Render("[ ] "+task.TaskText))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Bar renders a fixed-width progress bar.
func Bar(done, total, width int) string {
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}
	return perfectStyle.Render(strings.Repeat("█", filled)) + headerStyle.Render(strings.Repeat("░", width-filled))
}
