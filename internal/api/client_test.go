package api

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/hard75/internal/api/apitest"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
)

func newTestClient(t *testing.T) (*Client, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)

	c, err := New(Options{
		BaseURL:    srv.URL,
		Tokens:     StaticToken(apitest.DefaultToken),
		HTTPClient: srv.HTTPClient(),
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c, srv
}

func intPtr(i int) *int { return &i }

func TestNewRequiresBaseURL(t *testing.T) {
	for _, base := range []string{"", "   ", "not a url", "/relative"} {
		_, err := New(Options{BaseURL: base})
		if err == nil {
			t.Errorf("New(%q) should fail", base)
			continue
		}
		if apperrors.CategoryOf(err) != apperrors.CategoryConfiguration {
			t.Errorf("New(%q) category = %s, want configuration", base, apperrors.CategoryOf(err))
		}
	}
}

func TestUnauthorized(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL, HTTPClient: srv.HTTPClient()})
	if err != nil {
		t.Fatal(err)
	}

	res := c.GetTasks(context.Background())
	if res.Success {
		t.Fatal("GetTasks() without token succeeded")
	}
	if res.Err.Category != apperrors.CategoryAuth || res.Err.Status != http.StatusUnauthorized {
		t.Errorf("error = %+v, want auth/401", res.Err)
	}
}

func TestValidationShortCircuits(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() *apperrors.AppError
	}{
		{"empty task text", func() *apperrors.AppError { return c.CreateTask(ctx, models.CreateTaskRequest{TaskText: " "}).Err }},
		{"task text too long", func() *apperrors.AppError {
			return c.CreateTask(ctx, models.CreateTaskRequest{TaskText: strings.Repeat("x", 501)}).Err
		}},
		{"negative order", func() *apperrors.AppError {
			return c.CreateTask(ctx, models.CreateTaskRequest{TaskText: "Read", OrderIndex: intPtr(-1)}).Err
		}},
		{"bad start date", func() *apperrors.AppError {
			return c.CreateChallenge(ctx, models.CreateChallengeRequest{StartDate: "01/02/2024"}).Err
		}},
		{"day out of range", func() *apperrors.AppError {
			return c.UpdateChallenge(ctx, models.UpdateChallengeRequest{ChallengeID: "c1", CurrentDay: intPtr(76)}).Err
		}},
		{"long name", func() *apperrors.AppError {
			return c.CreateProfile(ctx, models.CreateProfileRequest{Name: strings.Repeat("n", 256)}).Err
		}},
		{"bad completion date", func() *apperrors.AppError {
			return c.CompleteTask(ctx, models.CompleteTaskRequest{TaskID: "t1", Date: "2024-13-01"}).Err
		}},
		{"bad completions query", func() *apperrors.AppError { return c.GetCompletions(ctx, "yesterday").Err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if err == nil || err.Category != apperrors.CategoryValidation {
				t.Errorf("error = %v, want validation", err)
			}
		})
	}

	if n := srv.TotalRequests(); n != 0 {
		t.Errorf("server saw %d requests, want none", n)
	}
}

func TestStatusMapping(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		status   int
		category apperrors.Category
		code     string
	}{
		{http.StatusBadRequest, apperrors.CategoryValidation, apperrors.CodeValidation},
		{http.StatusNotFound, apperrors.CategoryValidation, apperrors.CodeNotFound},
		{http.StatusInternalServerError, apperrors.CategoryDatabase, apperrors.CodeDatabase},
		{http.StatusServiceUnavailable, apperrors.CategoryDatabase, apperrors.CodeDatabase},
		{http.StatusTeapot, apperrors.CategoryNetwork, apperrors.CodeNetwork},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv.Fail("GET /tasks/custom", tt.status, 1)
			res := c.GetTasks(ctx)
			if res.Success {
				t.Fatal("expected failure")
			}
			if res.Err.Category != tt.category || res.Err.Code != tt.code || res.Err.Status != tt.status {
				t.Errorf("error = %s/%s/%d, want %s/%s/%d", res.Err.Category, res.Err.Code, res.Err.Status, tt.category, tt.code, tt.status)
			}
		})
	}
}

func TestTransportFailureIsNetwork(t *testing.T) {
	c, srv := newTestClient(t)

	srv.Drop("POST /tasks/custom", 1)
	res := c.CreateTask(context.Background(), models.CreateTaskRequest{TaskText: "Read"})
	if res.Success {
		t.Fatal("expected failure on dropped connection")
	}
	if res.Err.Category != apperrors.CategoryNetwork || !res.Err.Retryable() {
		t.Errorf("error = %+v, want retryable network error", res.Err)
	}
}

func TestClosedServerIsNetwork(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Close()

	res := c.Health(context.Background())
	if res.Success || res.Err.Category != apperrors.CategoryNetwork {
		t.Errorf("Health() on closed server = %+v", res)
	}
}

func TestContextTimeout(t *testing.T) {
	c, _ := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	res := c.GetProfile(ctx)
	if res.Success || res.Err.Category != apperrors.CategoryNetwork {
		t.Errorf("GetProfile() with expired context = %+v", res)
	}
}

func TestProfileLifecycle(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if res := c.GetProfile(ctx); res.Success || res.Err.Code != apperrors.CodeNotFound {
		t.Fatalf("GetProfile() before create = %+v, want NOT_FOUND", res)
	}

	created := c.CreateProfile(ctx, models.CreateProfileRequest{Name: "Ada"})
	if !created.Success || created.Data.ID == "" || created.Data.Name != "Ada" {
		t.Fatalf("CreateProfile() = %+v", created)
	}

	name := "Ada L."
	updated := c.UpdateProfile(ctx, models.UpdateProfileRequest{Name: &name})
	if !updated.Success || updated.Data.Name != name {
		t.Fatalf("UpdateProfile() = %+v", updated)
	}

	got := c.GetProfile(ctx)
	if !got.Success || got.Data.Name != name || got.Data.ID != created.Data.ID {
		t.Errorf("GetProfile() = %+v", got)
	}
}

func TestChallengeRestartDeactivatesPrevious(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetNow(func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) })
	ctx := context.Background()

	first := c.CreateChallenge(ctx, models.CreateChallengeRequest{StartDate: "2024-01-01"})
	if !first.Success {
		t.Fatalf("CreateChallenge() = %+v", first.Err)
	}
	if first.Data.EndDate != "2024-03-15" || first.Data.CurrentDay != 10 {
		t.Errorf("challenge = %+v, want end 2024-03-15 day 10", first.Data)
	}

	second := c.CreateChallenge(ctx, models.CreateChallengeRequest{StartDate: "2024-01-10"})
	if !second.Success {
		t.Fatalf("second CreateChallenge() = %+v", second.Err)
	}

	list := c.GetChallenges(ctx)
	if !list.Success || len(list.Data) != 2 {
		t.Fatalf("GetChallenges() = %+v", list)
	}
	active := 0
	for _, ch := range list.Data {
		if ch.IsActive {
			active++
			if ch.ID != second.Data.ID {
				t.Errorf("active challenge = %s, want %s", ch.ID, second.Data.ID)
			}
		}
	}
	if active != 1 {
		t.Errorf("active challenges = %d, want 1", active)
	}
}

func TestTasksCRUDKeepsOrder(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	var ids []string
	for i, text := range []string{"Workout", "Read", "Water"} {
		res := c.CreateTask(ctx, models.CreateTaskRequest{TaskText: text, OrderIndex: intPtr(i)})
		if !res.Success {
			t.Fatalf("CreateTask(%s) = %+v", text, res.Err)
		}
		ids = append(ids, res.Data.ID)
	}

	del := c.DeleteTask(ctx, models.DeleteTaskRequest{TaskID: ids[1]})
	if !del.Success || del.Data == "" {
		t.Fatalf("DeleteTask() = %+v", del)
	}

	list := c.GetTasks(ctx)
	if !list.Success || len(list.Data) != 2 {
		t.Fatalf("GetTasks() = %+v", list)
	}
	if list.Data[0].OrderIndex != 0 || list.Data[1].OrderIndex != 2 {
		t.Errorf("order indexes = %d,%d, want 0,2", list.Data[0].OrderIndex, list.Data[1].OrderIndex)
	}

	auto := c.CreateTask(ctx, models.CreateTaskRequest{TaskText: "Photo"})
	if !auto.Success || auto.Data.OrderIndex != 3 {
		t.Errorf("auto order index = %d, want 3", auto.Data.OrderIndex)
	}

	text := "Outdoor workout"
	upd := c.UpdateTask(ctx, models.UpdateTaskRequest{TaskID: ids[0], TaskText: &text})
	if !upd.Success || upd.Data.TaskText != text {
		t.Errorf("UpdateTask() = %+v", upd)
	}

	missing := c.DeleteTask(ctx, models.DeleteTaskRequest{TaskID: ids[1]})
	if missing.Success || missing.Err.Code != apperrors.CodeNotFound {
		t.Errorf("DeleteTask(deleted) = %+v, want NOT_FOUND", missing)
	}
}

func TestCompletionUpsertAndProgress(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	date := "2024-02-01"

	var ids []string
	for _, text := range []string{"A", "B"} {
		res := c.CreateTask(ctx, models.CreateTaskRequest{TaskText: text})
		ids = append(ids, res.Data.ID)
	}

	for i := 0; i < 2; i++ {
		res := c.CompleteTask(ctx, models.CompleteTaskRequest{TaskID: ids[0], Completed: true, Date: date})
		if !res.Success || res.Data.AllCompleted {
			t.Fatalf("CompleteTask(A) = %+v", res)
		}
	}
	done := c.CompleteTask(ctx, models.CompleteTaskRequest{TaskID: ids[1], Completed: true, Date: date})
	if !done.Success || !done.Data.AllCompleted {
		t.Fatalf("CompleteTask(B) = %+v, want all completed", done)
	}

	day := c.GetCompletions(ctx, date)
	if !day.Success {
		t.Fatalf("GetCompletions() = %+v", day.Err)
	}
	if len(day.Data.Completions) != 2 {
		t.Errorf("completions = %d, want one per task", len(day.Data.Completions))
	}
	p := day.Data.DailyProgress
	if !p.AllCompleted || p.CompletedCount != 2 || p.TotalTasks != 2 {
		t.Errorf("progress = %+v", p)
	}
	if day.Data.Completions[0].TaskText != "A" {
		t.Errorf("completion not joined with task text: %+v", day.Data.Completions[0])
	}
}

func TestHealth(t *testing.T) {
	c, _ := newTestClient(t)
	res := c.Health(context.Background())
	if !res.Success || !res.Data.Database.Connected {
		t.Errorf("Health() = %+v", res)
	}
}
