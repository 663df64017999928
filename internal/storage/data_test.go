package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/julianstephens/hard75/internal/cache"
	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
)

func seed(t *testing.T, h *harness) []models.CustomTask {
	t.Helper()
	ctx := context.Background()
	if res := h.facade.CreateProfile(ctx, models.CreateProfileRequest{Name: "Sam"}); res.Outcome != OutcomeApplied {
		t.Fatalf("CreateProfile() = %+v", res)
	}
	if res := h.facade.CreateChallenge(ctx, models.CreateChallengeRequest{StartDate: "2024-01-01"}); res.Outcome != OutcomeApplied {
		t.Fatalf("CreateChallenge() = %+v", res)
	}
	tasks := h.createTasks(t, "Workout", "Read", "Water")
	for _, date := range []string{"2024-01-09", testToday} {
		for _, task := range tasks[:2] {
			h.facade.CompleteTask(ctx, models.CompleteTaskRequest{TaskID: task.ID, Completed: true, Date: date})
		}
	}
	return tasks
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newHarness(t, Options{})
	seed(t, src)
	ctx := context.Background()

	exported := src.facade.ExportData(ctx)
	if !exported.OK() || exported.FromCache {
		t.Fatalf("ExportData() = %+v", exported)
	}
	data := exported.Data
	if data.Version != constants.ExportVersion || data.Profile == nil || len(data.Tasks) != 3 || len(data.Completions) != 2 {
		t.Fatalf("export = %+v", data)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal export: %v", err)
	}
	var decoded models.ExportData
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal export: %v", err)
	}

	dst := newHarness(t, Options{Offline: true})
	if err := dst.facade.ImportData(decoded); err != nil {
		t.Fatalf("ImportData() error: %v", err)
	}
	if n := dst.server.TotalRequests(); n != 0 {
		t.Errorf("import made %d requests", n)
	}

	again := dst.facade.ExportData(ctx)
	if !again.FromCache {
		t.Error("offline export should come from cache")
	}
	got := again.Data
	if got.Profile == nil || got.Profile.ID != data.Profile.ID || got.Profile.Name != "Sam" {
		t.Errorf("profile = %+v, want %+v", got.Profile, data.Profile)
	}
	if len(got.Challenges) != 1 || got.Challenges[0].ID != data.Challenges[0].ID {
		t.Errorf("challenges = %+v", got.Challenges)
	}
	if len(got.Tasks) != len(data.Tasks) {
		t.Fatalf("tasks = %d, want %d", len(got.Tasks), len(data.Tasks))
	}
	for i := range data.Tasks {
		if got.Tasks[i].ID != data.Tasks[i].ID || got.Tasks[i].OrderIndex != data.Tasks[i].OrderIndex {
			t.Errorf("task %d = %+v, want %+v", i, got.Tasks[i], data.Tasks[i])
		}
	}
	for date, want := range data.Completions {
		if len(got.Completions[date]) != len(want) {
			t.Errorf("completions on %s = %d, want %d", date, len(got.Completions[date]), len(want))
		}
	}

	day := dst.facade.GetTaskCompletions(ctx, testToday)
	if p := day.Data.DailyProgress; p.CompletedCount != 2 || p.TotalTasks != 3 || p.DayNumber != 10 {
		t.Errorf("imported progress = %+v", p)
	}
}

func TestImportRejectsInvalidData(t *testing.T) {
	tests := []struct {
		name string
		data models.ExportData
	}{
		{name: "unsupported version", data: models.ExportData{Version: 99}},
		{name: "bad completion date", data: models.ExportData{Version: 1, Completions: map[string][]models.TaskCompletion{"Jan 1": nil}}},
		{name: "duplicate task ids", data: models.ExportData{Version: 1, Tasks: []models.CustomTask{
			{ID: "a", TaskText: "Read"},
			{ID: "a", TaskText: "Water"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{Offline: true})
			err := h.facade.ImportData(tt.data)
			if err == nil || err.Category != apperrors.CategoryValidation {
				t.Fatalf("ImportData() error = %v, want validation", err)
			}
			if keys := h.cache.Keys(""); len(keys) != 0 {
				t.Errorf("rejected import wrote %v", keys)
			}
		})
	}
}

func TestClearAllData(t *testing.T) {
	h := newHarness(t, Options{})
	seed(t, h)
	h.facade.SetOnline(false)
	h.facade.CreateTask(context.Background(), models.CreateTaskRequest{TaskText: "Stretch"})

	h.facade.ClearAllData()
	status := h.facade.Status()
	if status.PendingChanges != 0 || status.LastSync != nil {
		t.Errorf("Status() after clear = %+v", status)
	}
	if keys := h.cache.Keys(""); len(keys) != 0 {
		t.Errorf("cache keys after clear = %v", keys)
	}
	if res := h.facade.GetTasks(context.Background()); res.Err == nil || res.Err.Code != apperrors.CodeNoCachedData {
		t.Errorf("GetTasks() after clear = %+v", res)
	}
}

func TestCompletionHistory(t *testing.T) {
	h := newHarness(t, Options{})
	tasks := seed(t, h)
	ctx := context.Background()

	h.cache.Remove(constants.CompletionsKey("2024-01-09"))
	before := h.server.Requests("GET /tasks/completions")

	history := h.facade.CompletionHistory(ctx, []string{"2024-01-08", "2024-01-09", testToday})
	if len(history) != 3 {
		t.Fatalf("history has %d days, want 3", len(history))
	}
	if got := h.server.Requests("GET /tasks/completions") - before; got != 2 {
		t.Errorf("fetched %d days, want the 2 uncached ones", got)
	}
	if !history["2024-01-09"].IsCompleted(tasks[0].ID) {
		t.Errorf("2024-01-09 = %+v", history["2024-01-09"])
	}
	if len(history["2024-01-08"].Completions) != 0 {
		t.Errorf("2024-01-08 = %+v, want empty", history["2024-01-08"])
	}
	if _, ok := cache.Load[models.DayCompletions](h.cache, constants.CompletionsKey("2024-01-09")); !ok {
		t.Error("fetched day was not cached")
	}

	h.facade.SetOnline(false)
	offline := h.facade.CompletionHistory(ctx, []string{"2024-01-07", testToday})
	if _, ok := offline["2024-01-07"]; ok || len(offline) != 1 {
		t.Errorf("offline history = %v, want cached days only", offline)
	}
}
