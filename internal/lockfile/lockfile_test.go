package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/hard75/internal/constants"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func withProcesses(t *testing.T, self int, procs map[int]string) {
	t.Helper()
	oldFind, oldPid := findProcessFunc, getpidFunc
	t.Cleanup(func() {
		findProcessFunc = oldFind
		getpidFunc = oldPid
	})

	getpidFunc = func() int { return self }
	findProcessFunc = func(pid int) (ps.Process, error) {
		exe, ok := procs[pid]
		if !ok {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: exe}, nil
	}
}

func TestAcquireAndRelease(t *testing.T) {
	withProcesses(t, 100, nil)
	dir := t.TempDir()

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	holder, err := Read(filepath.Join(dir, constants.SyncLockfileName))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if holder.PID != 100 {
		t.Errorf("holder pid = %d, want 100", holder.PID)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second Release() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, constants.SyncLockfileName)); !os.IsNotExist(err) {
		t.Error("lockfile still present after Release")
	}
}

func TestAcquireHeldByLiveWatcher(t *testing.T) {
	dir := t.TempDir()

	withProcesses(t, 100, nil)
	if _, err := Acquire(dir); err != nil {
		t.Fatal(err)
	}

	withProcesses(t, 200, map[int]string{100: "hard75"})
	if _, err := Acquire(dir); !errors.Is(err, ErrLocked) {
		t.Errorf("Acquire() error = %v, want ErrLocked", err)
	}
}

func TestAcquireReplacesStaleLock(t *testing.T) {
	tests := []struct {
		name  string
		procs map[int]string
	}{
		{"holder exited", nil},
		{"pid reused by another program", map[int]string{100: "bash"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			withProcesses(t, 100, nil)
			if _, err := Acquire(dir); err != nil {
				t.Fatal(err)
			}

			withProcesses(t, 200, tt.procs)
			lock, err := Acquire(dir)
			if err != nil {
				t.Fatalf("Acquire() over stale lock error: %v", err)
			}
			defer lock.Release()

			holder, _ := Read(filepath.Join(dir, constants.SyncLockfileName))
			if holder.PID != 200 {
				t.Errorf("holder pid = %d, want 200", holder.PID)
			}
		})
	}
}

func TestReadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lock")
	for _, content := range []string{"", "abc", "12|not-a-time", "-1|2024-01-01T00:00:00Z"} {
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := Read(path); err == nil {
			t.Errorf("Read(%q) should fail", content)
		}
	}
}
