package summary

import (
	"strings"
	"testing"

	"github.com/julianstephens/hard75/internal/stats"
)

func TestView(t *testing.T) {
	m := New(80, 30)
	if got := m.View(); got != "Loading stats..." {
		t.Errorf("View() before summary = %q", got)
	}

	m.SetSummary(stats.Summary{
		StartDate:       "2024-01-01",
		EndDate:         "2024-03-15",
		DayNumber:       10,
		ProgressPercent: 13,
		DaysTracked:     10,
		PerfectDays:     7,
		CompletionRate:  80,
		CurrentStreak:   5,
		LongestStreak:   5,
		Weeks:           []stats.Week{{Number: 1, Days: 7, PerfectDays: 5, Completed: 11, Possible: 14, Rate: 79}},
		Tasks:           []stats.TaskRate{{TaskText: "Workout", Completed: 8, Days: 10, Rate: 80}},
	})

	view := m.View()
	for _, want := range []string{"10 of 75 (13%)", "7 of 10", "80%", "5 days", "Week  1", "5/7 perfect", "Workout"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

func TestSetSizeKeepsContent(t *testing.T) {
	m := New(40, 5)
	m.SetSummary(stats.Summary{DayNumber: 3, DaysTracked: 3})
	m.SetSize(100, 40)
	if !strings.Contains(m.View(), "3 of 75") {
		t.Errorf("View() after resize = %q", m.View())
	}
}
