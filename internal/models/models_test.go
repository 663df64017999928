package models

import (
	"testing"
	"time"
)

func TestDayCompletionsUpsert(t *testing.T) {
	day := DayCompletions{Date: "2024-01-10"}
	day.Upsert(TaskCompletion{TaskID: "a", Completed: true, TaskText: "Workout", OrderIndex: 2})
	day.Upsert(TaskCompletion{TaskID: "b", Completed: true})
	day.Upsert(TaskCompletion{TaskID: "a", Completed: false})

	if len(day.Completions) != 2 {
		t.Fatalf("completions = %+v, want one entry per task", day.Completions)
	}
	a := day.Completions[0]
	if a.Completed || a.TaskText != "Workout" || a.OrderIndex != 2 {
		t.Errorf("upserted completion = %+v, want text and order kept", a)
	}
	if day.IsCompleted("a") || !day.IsCompleted("b") || day.IsCompleted("missing") {
		t.Errorf("IsCompleted() mismatch: %+v", day.Completions)
	}
}

func TestDayCompletionsRecompute(t *testing.T) {
	tasks := []CustomTask{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	tests := []struct {
		name     string
		done     []string
		tasks    []CustomTask
		wantDone int
		wantAll  bool
	}{
		{"none", nil, tasks, 0, false},
		{"some", []string{"a", "c"}, tasks, 2, false},
		{"all", []string{"a", "b", "c"}, tasks, 3, true},
		{"completion for a deleted task", []string{"a", "gone"}, tasks[:1], 1, true},
		{"no tasks", nil, nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day := DayCompletions{Date: "2024-01-10"}
			for _, id := range tt.done {
				day.Upsert(TaskCompletion{TaskID: id, Completed: true})
			}
			day.Recompute(tt.tasks, 10)
			p := day.DailyProgress
			if p.CompletedCount != tt.wantDone || p.AllCompleted != tt.wantAll || p.TotalTasks != len(tt.tasks) {
				t.Errorf("progress = %+v, want %d done, all=%v", p, tt.wantDone, tt.wantAll)
			}
			if p.Date != "2024-01-10" || p.DayNumber != 10 {
				t.Errorf("progress date/day = %s/%d", p.Date, p.DayNumber)
			}
		})
	}
}

func TestSortTasks(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tasks := []CustomTask{
		{ID: "c", OrderIndex: 2, CreatedAt: base},
		{ID: "b2", OrderIndex: 1, CreatedAt: base.Add(time.Minute)},
		{ID: "a", OrderIndex: 0, CreatedAt: base},
		{ID: "b1", OrderIndex: 1, CreatedAt: base},
	}
	SortTasks(tasks)

	want := []string{"a", "b1", "b2", "c"}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Fatalf("order = %v, want %v", tasks, want)
		}
	}
}

func TestNextOrderIndex(t *testing.T) {
	tests := []struct {
		name  string
		tasks []CustomTask
		want  int
	}{
		{"empty", nil, 0},
		{"contiguous", []CustomTask{{OrderIndex: 0}, {OrderIndex: 1}}, 2},
		{"gap after delete", []CustomTask{{OrderIndex: 0}, {OrderIndex: 2}}, 3},
	}
	for _, tt := range tests {
		if got := NextOrderIndex(tt.tasks); got != tt.want {
			t.Errorf("%s: NextOrderIndex() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestActiveChallenge(t *testing.T) {
	if _, ok := ActiveChallenge(nil); ok {
		t.Error("ActiveChallenge(nil) found a challenge")
	}
	challenges := []Challenge{{ID: "old"}, {ID: "current", IsActive: true}}
	c, ok := ActiveChallenge(challenges)
	if !ok || c.ID != "current" {
		t.Errorf("ActiveChallenge() = %+v, %v", c, ok)
	}
}

func TestProvisionalIDs(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"temp_1234", true},
		{"3f2a9c1e-0000-4000-8000-000000000000", false},
		{"", false},
		{"attempt_1", false},
	}
	for _, tt := range tests {
		if got := IsProvisionalID(tt.id); got != tt.want {
			t.Errorf("IsProvisionalID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
	if !(CustomTask{ID: "temp_x"}).IsProvisional() || (Challenge{ID: "c1"}).IsProvisional() {
		t.Error("IsProvisional() disagrees with IsProvisionalID()")
	}
}
