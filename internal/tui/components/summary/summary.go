// Package summary renders challenge statistics in a scrollable viewport.
package summary

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/stats"
	"github.com/julianstephens/hard75/internal/tui/components/checklist"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			MarginTop(1)
)

type Model struct {
	viewport viewport.Model
	Summary  *stats.Summary
	width    int
	height   int
}

func New(width, height int) Model {
	return Model{viewport: viewport.New(width, height)}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Summary == nil {
		return "Loading stats..."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetSummary(s stats.Summary) {
	m.Summary = &s
	m.Render()
}

// Render rebuilds the viewport content from the current summary.
func (m *Model) Render() {
	if m.Summary == nil {
		m.viewport.SetContent("No stats loaded.")
		return
	}
	s := m.Summary

	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Day", fmt.Sprintf("%d of %d (%d%%)", s.DayNumber, constants.ChallengeDays, s.ProgressPercent))
	row("Dates", s.StartDate+" → "+s.EndDate)
	row("Perfect days", fmt.Sprintf("%d of %d", s.PerfectDays, s.DaysTracked))
	row("Completion rate", fmt.Sprintf("%d%%", s.CompletionRate))
	row("Current streak", fmt.Sprintf("%d days", s.CurrentStreak))
	row("Longest streak", fmt.Sprintf("%d days", s.LongestStreak))

	if len(s.Weeks) > 0 {
		b.WriteString(sectionStyle.Render("Weeks") + "\n")
		for _, w := range s.Weeks {
			b.WriteString(fmt.Sprintf("  Week %2d  %s %3d%%  %d/%d perfect\n",
				w.Number, checklist.Bar(w.Completed, w.Possible, 20), w.Rate, w.PerfectDays, w.Days))
		}
	}
	if len(s.Tasks) > 0 {
		b.WriteString(sectionStyle.Render("Tasks") + "\n")
		for _, t := range s.Tasks {
			b.WriteString(fmt.Sprintf("  %s %3d%%  %s\n", checklist.Bar(t.Completed, t.Days, 20), t.Rate, t.TaskText))
		}
	}
	m.viewport.SetContent(b.String())
}
