package tasklist

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/models"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestItemDescription(t *testing.T) {
	tests := []struct {
		name string
		task models.CustomTask
		want string
	}{
		{"plain", models.CustomTask{ID: "task-1", OrderIndex: 2}, "#3"},
		{"default", models.CustomTask{ID: "task-1", IsDefault: true}, "#1 | default"},
		{"provisional", models.CustomTask{ID: constants.TempIDPrefix + "1", OrderIndex: 1}, "#2 | not synced yet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Item{Task: tt.task}).Description(); got != tt.want {
				t.Errorf("Description() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeysEmitMessages(t *testing.T) {
	tasks := []models.CustomTask{
		{ID: "task-1", TaskText: "Workout"},
		{ID: "task-2", TaskText: "Read", OrderIndex: 1},
	}
	m := New(tasks, 80, 20)

	if got, ok := m.Selected(); !ok || got.ID != "task-1" {
		t.Fatalf("Selected() = %+v, %v", got, ok)
	}

	_, cmd := m.Update(runes("a"))
	if _, ok := cmd().(AddTaskMsg); !ok {
		t.Error("'a' did not emit AddTaskMsg")
	}
	_, cmd = m.Update(runes("e"))
	if msg, ok := cmd().(EditTaskMsg); !ok || msg.Task.ID != "task-1" {
		t.Errorf("'e' emitted %+v", cmd())
	}
	_, cmd = m.Update(runes("d"))
	if msg, ok := cmd().(DeleteTaskMsg); !ok || msg.ID != "task-1" {
		t.Errorf("'d' emitted %+v", cmd())
	}
}

func TestEmptyList(t *testing.T) {
	m := New(nil, 80, 20)
	if _, ok := m.Selected(); ok {
		t.Error("Selected() on an empty list reported a task")
	}
	if _, cmd := m.Update(runes("d")); cmd != nil {
		if _, ok := cmd().(DeleteTaskMsg); ok {
			t.Error("'d' on an empty list emitted DeleteTaskMsg")
		}
	}
	if !strings.Contains(m.View(), "No tasks yet") {
		t.Errorf("View() = %q", m.View())
	}

	m.SetTasks([]models.CustomTask{{ID: "task-9", TaskText: "Water"}})
	if got, ok := m.Selected(); !ok || got.ID != "task-9" {
		t.Errorf("Selected() after SetTasks = %+v, %v", got, ok)
	}
}
