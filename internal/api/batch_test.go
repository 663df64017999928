package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
)

func constCall(v int, succeed bool) func(context.Context) Result[int] {
	return func(context.Context) Result[int] {
		if succeed {
			return ok(v)
		}
		return fail[int](apperrors.FromHTTP(http.StatusInternalServerError, ""))
	}
}

func TestBatch(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		calls   []func(context.Context) Result[int]
		success bool
		want    []int
	}{
		{"all succeed", []func(context.Context) Result[int]{constCall(1, true), constCall(2, true)}, true, []int{1, 2}},
		{"partial", []func(context.Context) Result[int]{constCall(1, false), constCall(2, true), constCall(3, true)}, true, []int{2, 3}},
		{"all fail", []func(context.Context) Result[int]{constCall(1, false), constCall(2, false)}, false, nil},
		{"empty", nil, true, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Batch(ctx, 2, tt.calls)
			if res.Success != tt.success {
				t.Fatalf("Success = %v, want %v", res.Success, tt.success)
			}
			if !tt.success {
				if res.Err == nil || res.Err.Category != apperrors.CategoryDatabase {
					t.Errorf("Err = %v, want first failure", res.Err)
				}
				return
			}
			if len(res.Data) != len(tt.want) {
				t.Fatalf("Data = %v, want %v", res.Data, tt.want)
			}
			for i := range tt.want {
				if res.Data[i] != tt.want[i] {
					t.Errorf("Data = %v, want %v", res.Data, tt.want)
				}
			}
		})
	}
}

func TestRunBatchRespectsLimit(t *testing.T) {
	var inFlight, peak int32
	calls := make([]func(context.Context) Result[int], 10)
	for i := range calls {
		calls[i] = func(context.Context) Result[int] {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return ok(i)
		}
	}

	results := RunBatch(context.Background(), 3, calls)
	if len(results) != 10 {
		t.Fatalf("results = %d, want 10", len(results))
	}
	for i, r := range results {
		if !r.Success || r.Data != i {
			t.Errorf("results[%d] = %+v, want ordered success", i, r)
		}
	}
	if peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestInitializeDefaultTasks(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	reqs := []models.CreateTaskRequest{
		{TaskText: "Diet", IsDefault: true, OrderIndex: intPtr(0)},
		{TaskText: "Workout", IsDefault: true, OrderIndex: intPtr(1)},
		{TaskText: "", IsDefault: true, OrderIndex: intPtr(2)},
	}

	res := c.InitializeDefaultTasks(ctx, reqs)
	if !res.Success {
		t.Fatalf("InitializeDefaultTasks() = %+v", res.Err)
	}
	if len(res.Data.Created) != 2 || len(res.Data.Items) != 3 {
		t.Fatalf("created=%d items=%d, want 2/3", len(res.Data.Created), len(res.Data.Items))
	}
	if res.Data.Items[2].Err == nil || res.Data.Items[2].Task != nil {
		t.Errorf("item 2 = %+v, want validation failure", res.Data.Items[2])
	}
	if res.Data.Created[0].TaskText != "Diet" || !res.Data.Created[0].IsDefault {
		t.Errorf("created[0] = %+v", res.Data.Created[0])
	}
	if got := len(srv.Tasks()); got != 2 {
		t.Errorf("server tasks = %d, want 2", got)
	}
}

func TestInitializeDefaultTasksAllFail(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Fail("POST /tasks/custom", http.StatusInternalServerError, 10)

	res := c.InitializeDefaultTasks(context.Background(), []models.CreateTaskRequest{{TaskText: "A"}, {TaskText: "B"}})
	if res.Success {
		t.Fatal("expected failure when nothing was created")
	}
	if res.Err == nil || res.Err.Category != apperrors.CategoryDatabase {
		t.Errorf("Err = %v, want database", res.Err)
	}
	if len(res.Data.Items) != 2 {
		t.Errorf("Items = %d, want per-item results even on failure", len(res.Data.Items))
	}

	empty := c.InitializeDefaultTasks(context.Background(), nil)
	if empty.Success || empty.Err.Category != apperrors.CategoryValidation {
		t.Errorf("empty input = %+v, want validation error", empty)
	}
}
