// Package clitest builds command contexts wired to a fake API for tests.
package clitest

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/hard75/internal/api/apitest"
	"github.com/julianstephens/hard75/internal/cli"
)

// Today is the date every Env clock reads.
const Today = "2024-01-10"

// Now is the fixed clock used by Env.
func Now() time.Time {
	return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
}

// Env is a command context over a fake API and a SQLite cache in a temp dir.
type Env struct {
	Ctx    *cli.Context
	Server *apitest.Server
	Out    *bytes.Buffer
}

// New returns an online environment. The cache and config dir live under
// t.TempDir and the context is closed on cleanup.
func New(t *testing.T) *Env {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	srv.SetNow(Now)

	dir := t.TempDir()
	out := &bytes.Buffer{}
	ctx := &cli.Context{
		Config: cli.Config{
			APIURL:    srv.URL,
			Token:     apitest.DefaultToken,
			Cache:     filepath.Join(dir, "cache.db"),
			ConfigDir: dir,
		},
		Out:        out,
		Now:        Now,
		HTTPClient: srv.HTTPClient(),
	}
	t.Cleanup(func() {
		if err := ctx.Close(); err != nil {
			t.Errorf("failed to close context: %v", err)
		}
	})
	return &Env{Ctx: ctx, Server: srv, Out: out}
}

// Reopen drops the cached façade and cache handle so the next command starts
// like a new process. offline sets --offline for the next commands.
func (e *Env) Reopen(t *testing.T, offline bool) {
	t.Helper()
	if err := e.Ctx.Close(); err != nil {
		t.Fatalf("failed to close context: %v", err)
	}
	e.Ctx.Config.Offline = offline
	e.Out.Reset()
}

// Output returns everything written so far and resets the buffer.
func (e *Env) Output() string {
	s := e.Out.String()
	e.Out.Reset()
	return s
}
