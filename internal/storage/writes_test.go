package storage

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
)

func TestDeleteMiddleTaskKeepsOrder(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	tasks := h.createTasks(t, "Workout", "Read", "Water")

	res := h.facade.DeleteTask(ctx, models.DeleteTaskRequest{TaskID: tasks[1].ID})
	if res.Outcome != OutcomeApplied {
		t.Fatalf("DeleteTask() = %+v", res)
	}

	list := h.facade.GetTasks(ctx)
	if !list.OK() || len(list.Data) != 2 {
		t.Fatalf("GetTasks() = %+v", list)
	}
	if list.Data[0].OrderIndex != 0 || list.Data[1].OrderIndex != 2 {
		t.Errorf("order indexes = %d,%d, want 0,2", list.Data[0].OrderIndex, list.Data[1].OrderIndex)
	}
	if list.Data[0].ID != tasks[0].ID || list.Data[1].ID != tasks[2].ID {
		t.Errorf("remaining tasks = %v", list.Data)
	}
}

func TestAllCompletedProgress(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	tasks := h.createTasks(t, "Workout", "Read", "Water")

	for _, task := range tasks {
		res := h.facade.CompleteTask(ctx, models.CompleteTaskRequest{TaskID: task.ID, Completed: true})
		if res.Outcome != OutcomeApplied {
			t.Fatalf("CompleteTask(%s) = %+v", task.ID, res)
		}
	}

	day := h.facade.GetTaskCompletions(ctx, testToday)
	if !day.OK() {
		t.Fatalf("GetTaskCompletions() error: %v", day.Err)
	}
	p := day.Data.DailyProgress
	if !p.AllCompleted || p.CompletedCount != 3 || p.TotalTasks != 3 {
		t.Errorf("progress = %+v, want 3/3 all completed", p)
	}

	h.facade.CompleteTask(ctx, models.CompleteTaskRequest{TaskID: tasks[1].ID, Completed: false})
	day = h.facade.GetTaskCompletions(ctx, "")
	p = day.Data.DailyProgress
	if p.AllCompleted || p.CompletedCount != 2 || p.TotalTasks != 3 {
		t.Errorf("progress after unmark = %+v, want 2/3", p)
	}
}

func TestOfflineCompletionReadsFromCache(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	tasks := h.createTasks(t, "Workout", "Read")
	h.facade.SetOnline(false)
	before := h.server.TotalRequests()

	res := h.facade.CompleteTask(ctx, models.CompleteTaskRequest{TaskID: tasks[0].ID, Completed: true})
	if !res.Success || res.Outcome != OutcomePending {
		t.Fatalf("CompleteTask() offline = %+v, want pending success", res)
	}
	if !stderrors.Is(res.Err, apperrors.ErrQueued) {
		t.Errorf("CompleteTask() error = %v, want queued", res.Err)
	}

	day := h.facade.GetTaskCompletions(ctx, "")
	if !day.OK() || !day.FromCache {
		t.Fatalf("GetTaskCompletions() = %+v, want cached", day)
	}
	if !day.Data.IsCompleted(tasks[0].ID) || day.Data.IsCompleted(tasks[1].ID) {
		t.Errorf("completions = %+v", day.Data.Completions)
	}
	if got := day.Data.DailyProgress; got.CompletedCount != 1 || got.TotalTasks != 2 {
		t.Errorf("progress = %+v, want 1/2", got)
	}
	if n := h.server.TotalRequests(); n != before {
		t.Errorf("offline completion made %d requests", n-before)
	}
	if s := h.facade.Status(); s.PendingChanges != 1 || s.IsOnline {
		t.Errorf("Status() = %+v", s)
	}
}

func TestCompletionIsIdempotent(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	tasks := h.createTasks(t, "Workout")

	for i := 0; i < 2; i++ {
		h.facade.CompleteTask(ctx, models.CompleteTaskRequest{TaskID: tasks[0].ID, Completed: true, Date: testToday})
	}
	if got := h.server.Completions(testToday); len(got) != 1 {
		t.Errorf("server completions = %d, want 1", len(got))
	}
	day := h.facade.GetTaskCompletions(ctx, testToday)
	if len(day.Data.Completions) != 1 || !day.Data.DailyProgress.AllCompleted {
		t.Errorf("day = %+v", day.Data)
	}
}

func TestRejectedWritesAreNotQueued(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	tasks := h.createTasks(t, "Workout")

	tests := []struct {
		name  string
		setup func()
		write func() WriteResult[models.CustomTask]
		code  string
	}{
		{
			name:  "local validation",
			write: func() WriteResult[models.CustomTask] { return h.facade.CreateTask(ctx, models.CreateTaskRequest{TaskText: "  "}) },
			code:  apperrors.CodeValidation,
		},
		{
			name:  "server validation",
			setup: func() { h.server.Fail("POST /tasks/custom", 400, 1) },
			write: func() WriteResult[models.CustomTask] { return h.facade.CreateTask(ctx, models.CreateTaskRequest{TaskText: "Read"}) },
			code:  apperrors.CodeValidation,
		},
		{
			name:  "unknown task",
			write: func() WriteResult[models.CustomTask] { return h.facade.UpdateTask(ctx, models.UpdateTaskRequest{TaskID: "missing", TaskText: strPtr("x")}) },
			code:  apperrors.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			res := tt.write()
			if res.Success || res.Outcome != OutcomeRejected {
				t.Fatalf("write = %+v, want rejected", res)
			}
			if res.Err.Code != tt.code {
				t.Errorf("code = %s, want %s", res.Err.Code, tt.code)
			}
			if n := h.facade.Status().PendingChanges; n != 0 {
				t.Errorf("pending changes = %d, want 0", n)
			}
		})
	}

	list := h.facade.GetTasks(ctx)
	if len(list.Data) != 1 || list.Data[0].ID != tasks[0].ID {
		t.Errorf("tasks after rejected writes = %v", list.Data)
	}
}

func TestRejectedCompletionRestoresCache(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	tasks := h.createTasks(t, "Workout")

	h.server.Fail("POST /tasks/complete", 404, 1)
	res := h.facade.CompleteTask(ctx, models.CompleteTaskRequest{TaskID: tasks[0].ID, Completed: true})
	if res.Outcome != OutcomeRejected {
		t.Fatalf("CompleteTask() = %+v, want rejected", res)
	}
	if h.cache.Has(constants.CompletionsKey(testToday)) {
		t.Error("rejected completion left a cached day behind")
	}
}

func TestUnreachableServerQueuesWrite(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	h.server.Drop("POST /tasks/custom", 1)
	res := h.facade.CreateTask(ctx, models.CreateTaskRequest{TaskText: "Read"})
	if !res.Success || res.Outcome != OutcomePending {
		t.Fatalf("CreateTask() = %+v, want pending success", res)
	}
	if !res.Data.IsProvisional() {
		t.Errorf("task id %q is not provisional", res.Data.ID)
	}
	var cause *apperrors.AppError
	if !stderrors.As(res.Err.Unwrap(), &cause) || cause.Category != apperrors.CategoryNetwork {
		t.Errorf("queued cause = %v, want network error", res.Err.Cause)
	}
	if !h.facade.IsOnline() {
		t.Error("a failed write should not flip connectivity")
	}

	status := h.facade.Sync(ctx)
	if status.PendingChanges != 0 {
		t.Fatalf("pending after sync = %d", status.PendingChanges)
	}
	if got := h.server.Tasks(); len(got) != 1 || got[0].TaskText != "Read" {
		t.Errorf("server tasks = %v", got)
	}
}

func TestOfflineTaskGetsServerID(t *testing.T) {
	h := newHarness(t, Options{Offline: true})
	ctx := context.Background()

	created := h.facade.CreateTask(ctx, models.CreateTaskRequest{TaskText: "Read"})
	if !created.Success || created.Outcome != OutcomePending || !created.Data.IsProvisional() {
		t.Fatalf("CreateTask() offline = %+v", created)
	}
	if created.Data.OrderIndex != 0 {
		t.Errorf("order index = %d, want 0", created.Data.OrderIndex)
	}

	list := h.facade.GetTasks(ctx)
	if !list.FromCache || len(list.Data) != 1 || list.Data[0].ID != created.Data.ID {
		t.Fatalf("GetTasks() offline = %+v", list)
	}

	done := h.facade.CompleteTask(ctx, models.CompleteTaskRequest{TaskID: created.Data.ID, Completed: true})
	if done.Outcome != OutcomePending {
		t.Fatalf("CompleteTask() on provisional task = %+v", done)
	}

	h.facade.SetOnline(true)
	if n := h.facade.Status().PendingChanges; n != 0 {
		t.Fatalf("pending after reconnect = %d", n)
	}

	serverTasks := h.server.Tasks()
	if len(serverTasks) != 1 {
		t.Fatalf("server tasks = %v", serverTasks)
	}
	realID := serverTasks[0].ID

	list = h.facade.GetTasks(ctx)
	if len(list.Data) != 1 || list.Data[0].ID != realID {
		t.Errorf("GetTasks() after sync = %v, want %s", list.Data, realID)
	}

	completions := h.server.Completions(testToday)
	if len(completions) != 1 || completions[0].TaskID != realID || !completions[0].Completed {
		t.Errorf("server completions = %+v", completions)
	}
	day := h.facade.GetTaskCompletions(ctx, testToday)
	if !day.Data.IsCompleted(realID) || !day.Data.DailyProgress.AllCompleted {
		t.Errorf("day after sync = %+v", day.Data)
	}
}

func TestDeleteProvisionalTaskCancelsQueue(t *testing.T) {
	h := newHarness(t, Options{Offline: true})
	ctx := context.Background()

	created := h.facade.CreateTask(ctx, models.CreateTaskRequest{TaskText: "Read"})
	h.facade.CompleteTask(ctx, models.CompleteTaskRequest{TaskID: created.Data.ID, Completed: true})
	if n := h.facade.Status().PendingChanges; n != 2 {
		t.Fatalf("pending = %d, want 2", n)
	}

	res := h.facade.DeleteTask(ctx, models.DeleteTaskRequest{TaskID: created.Data.ID})
	if res.Outcome != OutcomeApplied {
		t.Fatalf("DeleteTask() = %+v", res)
	}
	if n := h.facade.Status().PendingChanges; n != 0 {
		t.Errorf("pending after delete = %d, want 0", n)
	}
	if list := h.facade.GetTasks(ctx); len(list.Data) != 0 {
		t.Errorf("tasks = %v, want none", list.Data)
	}

	h.facade.SetOnline(true)
	if n := h.server.TotalRequests(); n != 0 {
		t.Errorf("cancelled task reached the server with %d requests", n)
	}
}

func TestPendingCompletionOverlaysRemoteRead(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	tasks := h.createTasks(t, "Workout", "Read")

	h.server.Drop("POST /tasks/complete", 1)
	res := h.facade.CompleteTask(ctx, models.CompleteTaskRequest{TaskID: tasks[1].ID, Completed: true})
	if res.Outcome != OutcomePending {
		t.Fatalf("CompleteTask() = %+v, want pending", res)
	}

	day := h.facade.GetTaskCompletions(ctx, testToday)
	if day.FromCache {
		t.Fatal("expected a remote read")
	}
	if !day.Data.IsCompleted(tasks[1].ID) || day.Data.DailyProgress.CompletedCount != 1 {
		t.Errorf("day = %+v, want queued completion applied", day.Data)
	}
}

func TestOfflineChallengeSupersedesActive(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	first := h.facade.CreateChallenge(ctx, models.CreateChallengeRequest{StartDate: "2024-01-01"})
	h.facade.SetOnline(false)

	restarted := h.facade.CreateChallenge(ctx, models.CreateChallengeRequest{StartDate: "2024-01-08"})
	if restarted.Outcome != OutcomePending || !restarted.Data.IsProvisional() {
		t.Fatalf("CreateChallenge() offline = %+v", restarted)
	}
	if restarted.Data.EndDate != "2024-03-22" || restarted.Data.CurrentDay != 3 {
		t.Errorf("provisional challenge = %+v", restarted.Data)
	}

	active := h.facade.GetActiveChallenge(ctx)
	if active.Data == nil || active.Data.ID != restarted.Data.ID {
		t.Fatalf("active challenge = %+v", active.Data)
	}

	h.facade.SetOnline(true)
	list := h.facade.GetChallenges(ctx)
	if !list.OK() || len(list.Data) != 2 {
		t.Fatalf("GetChallenges() = %+v", list)
	}
	for _, c := range list.Data {
		if c.IsProvisional() {
			t.Errorf("challenge %s still provisional after sync", c.ID)
		}
		if c.ID == first.Data.ID && c.IsActive {
			t.Error("superseded challenge still active")
		}
	}
	if !list.Data[0].IsActive || list.Data[0].StartDate != "2024-01-08" {
		t.Errorf("newest challenge = %+v", list.Data[0])
	}
}

func TestInitializeDefaultTasks(t *testing.T) {
	t.Run("online", func(t *testing.T) {
		h := newHarness(t, Options{})
		res := h.facade.InitializeDefaultTasks(context.Background(), nil)
		if res.Outcome != OutcomeApplied || len(res.Data.Created) != len(constants.DefaultTasks) {
			t.Fatalf("InitializeDefaultTasks() = %+v", res)
		}
		for i, task := range res.Data.Created {
			if task.OrderIndex != i || !task.IsDefault {
				t.Errorf("task %d = %+v", i, task)
			}
		}
	})

	t.Run("partially unreachable", func(t *testing.T) {
		h := newHarness(t, Options{})
		h.server.Fail("POST /tasks/custom", 503, 1)
		res := h.facade.InitializeDefaultTasks(context.Background(), []string{"Workout", "Read"})
		if !res.Success || res.Outcome != OutcomePending || len(res.Data.Created) != 2 {
			t.Fatalf("InitializeDefaultTasks() = %+v", res)
		}
		if n := h.facade.Status().PendingChanges; n != 1 {
			t.Errorf("pending = %d, want 1", n)
		}

		h.facade.Sync(context.Background())
		if got := h.server.Tasks(); len(got) != 2 {
			t.Errorf("server tasks after sync = %v", got)
		}
	})

	t.Run("offline", func(t *testing.T) {
		h := newHarness(t, Options{Offline: true})
		res := h.facade.InitializeDefaultTasks(context.Background(), []string{"Workout", "Read", "Water"})
		if !res.Success || res.Outcome != OutcomePending || len(res.Data.Created) != 3 {
			t.Fatalf("InitializeDefaultTasks() offline = %+v", res)
		}
		if n := h.facade.Status().PendingChanges; n != 1 {
			t.Errorf("pending = %d, want one batched change", n)
		}

		h.facade.SetOnline(true)
		serverTasks := h.server.Tasks()
		if len(serverTasks) != 3 || serverTasks[2].TaskText != "Water" {
			t.Errorf("server tasks = %v", serverTasks)
		}
		list := h.facade.GetTasks(context.Background())
		for _, task := range list.Data {
			if task.IsProvisional() {
				t.Errorf("task %s still provisional", task.ID)
			}
		}
	})

	t.Run("invalid text", func(t *testing.T) {
		h := newHarness(t, Options{})
		res := h.facade.InitializeDefaultTasks(context.Background(), []string{"Read", ""})
		if res.Outcome != OutcomeRejected || h.server.TotalRequests() != 0 {
			t.Errorf("InitializeDefaultTasks() = %+v, requests = %d", res, h.server.TotalRequests())
		}
	})
}

func TestProfileLifecycle(t *testing.T) {
	h := newHarness(t, Options{Offline: true})
	ctx := context.Background()

	created := h.facade.CreateProfile(ctx, models.CreateProfileRequest{Name: "Sam"})
	if created.Outcome != OutcomePending || created.Data.Name != "Sam" {
		t.Fatalf("CreateProfile() offline = %+v", created)
	}
	updated := h.facade.UpdateProfile(ctx, models.UpdateProfileRequest{Name: strPtr("Sam Doe")})
	if updated.Data.Name != "Sam Doe" {
		t.Errorf("UpdateProfile() offline = %+v", updated.Data)
	}

	h.facade.SetOnline(true)
	profile := h.facade.GetProfile(ctx)
	if !profile.OK() || profile.FromCache || profile.Data.Name != "Sam Doe" {
		t.Errorf("GetProfile() after sync = %+v", profile)
	}
}

func strPtr(s string) *string {
	return &s
}
