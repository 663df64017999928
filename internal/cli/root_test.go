package cli_test

import (
	"context"
	"strings"
	"testing"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/cli/clitest"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/storage"
)

func TestFacadeRequiresAPIURL(t *testing.T) {
	env := clitest.New(t)
	env.Ctx.Config.APIURL = ""

	_, err := env.Ctx.Facade(context.Background())
	if apperrors.CategoryOf(err) != apperrors.CategoryConfiguration {
		t.Fatalf("Facade() error = %v, want configuration error", err)
	}
}

func TestFacadeProbesUnlessOffline(t *testing.T) {
	env := clitest.New(t)

	f, err := env.Ctx.Facade(context.Background())
	if err != nil {
		t.Fatalf("Facade() error: %v", err)
	}
	if !f.IsOnline() || env.Server.Requests("GET /health") != 1 {
		t.Errorf("online = %v, health requests = %d", f.IsOnline(), env.Server.Requests("GET /health"))
	}
	if again, _ := env.Ctx.Facade(context.Background()); again != f {
		t.Error("Facade() should be built once per context")
	}

	env.Reopen(t, true)
	f, err = env.Ctx.Facade(context.Background())
	if err != nil {
		t.Fatalf("Facade() error: %v", err)
	}
	if f.IsOnline() || env.Server.Requests("GET /health") != 1 {
		t.Error("--offline should skip the probe")
	}
}

func TestQueuedChangesDrainOnNextStart(t *testing.T) {
	env := clitest.New(t)
	env.Reopen(t, true)

	f, err := env.Ctx.Facade(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	res := f.CreateTask(context.Background(), models.CreateTaskRequest{TaskText: "Read"})
	if res.Outcome != storage.OutcomePending {
		t.Fatalf("offline CreateTask() outcome = %s", res.Outcome)
	}

	env.Reopen(t, false)
	f, err = env.Ctx.Facade(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n := f.Status().PendingChanges; n != 0 {
		t.Errorf("pending after start = %d", n)
	}
	if got := env.Server.Tasks(); len(got) != 1 || got[0].TaskText != "Read" {
		t.Errorf("server tasks = %v", got)
	}
}

func TestReport(t *testing.T) {
	tests := []struct {
		name    string
		res     storage.WriteResult[string]
		want    string
		wantErr bool
	}{
		{"applied", storage.WriteResult[string]{Success: true, Outcome: storage.OutcomeApplied}, "✓ Saved", false},
		{"pending", storage.WriteResult[string]{Success: true, Outcome: storage.OutcomePending}, "⚠ Saved (saved locally, will sync)", false},
		{"rejected", storage.WriteResult[string]{Outcome: storage.OutcomeRejected, Err: apperrors.Validation("bad")}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := clitest.New(t)
			err := cli.Report(env.Ctx, tt.res, "Saved")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Report() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := env.Output(); !strings.Contains(got, tt.want) {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrKeepsNilInterface(t *testing.T) {
	var appErr *apperrors.AppError
	if err := cli.Err(appErr); err != nil {
		t.Errorf("Err(nil) = %v, want untyped nil", err)
	}
}

func TestConfirmWithoutTerminal(t *testing.T) {
	env := clitest.New(t)
	if ok, err := env.Ctx.Confirm("Sure?", true); !ok || err != nil {
		t.Errorf("Confirm(yes) = %v, %v", ok, err)
	}
	if ok, err := env.Ctx.Confirm("Sure?", false); ok || err == nil {
		t.Errorf("Confirm() without a terminal = %v, %v, want refusal", ok, err)
	}
}

func TestResolveTask(t *testing.T) {
	tasks := []models.CustomTask{
		{ID: "abc123", TaskText: "Workout"},
		{ID: "abd456", TaskText: "Read"},
		{ID: "xyz789", TaskText: "Water"},
	}

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"1", "abc123", false},
		{"3", "xyz789", false},
		{"abd456", "abd456", false},
		{"xy", "xyz789", false},
		{"ab", "", true},
		{"9", "", true},
		{"nope", "", true},
	}
	for _, tt := range tests {
		got, err := cli.ResolveTask(tasks, tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("ResolveTask(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if got.ID != tt.want {
			t.Errorf("ResolveTask(%q) = %s, want %s", tt.ref, got.ID, tt.want)
		}
	}
}

func TestUseTimezone(t *testing.T) {
	tests := []struct {
		timezone string
		want     string
	}{
		{"UTC", clitest.Today},
		{"Pacific/Kiritimati", "2024-01-11"},
	}
	for _, tt := range tests {
		t.Run(tt.timezone, func(t *testing.T) {
			env := clitest.New(t)
			if err := env.Ctx.UseTimezone(tt.timezone); err != nil {
				t.Fatalf("UseTimezone(%q) error: %v", tt.timezone, err)
			}
			if got := env.Ctx.Today(); got != tt.want {
				t.Errorf("Today() = %s, want %s", got, tt.want)
			}
		})
	}

	env := clitest.New(t)
	err := env.Ctx.UseTimezone("Mars/Olympus_Mons")
	if apperrors.CategoryOf(err) != apperrors.CategoryConfiguration {
		t.Errorf("UseTimezone() error = %v, want configuration error", err)
	}
	if env.Ctx.Today() != clitest.Today {
		t.Errorf("invalid timezone changed the clock: %s", env.Ctx.Today())
	}
}
