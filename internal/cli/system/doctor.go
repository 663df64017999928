package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/hard75/internal/backup"
	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/keyring"
	"github.com/julianstephens/hard75/internal/storage"
	"github.com/julianstephens/hard75/internal/validation"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	check := func(name string, err error) bool {
		if err != nil {
			ctx.Fail("%s: FAIL", name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
			return false
		}
		ctx.Success("%s: OK", name)
		return true
	}
	warn := func(name string, err error) {
		if err != nil {
			ctx.Warn("%s: WARNING", name)
			ctx.Printf("   %v\n", err)
			return
		}
		ctx.Success("%s: OK", name)
	}
	skip := func(name, reason string) {
		ctx.Printf("⊘ %s: SKIPPED (%s)\n", name, reason)
	}

	// Check 1: API configured
	_, clientErr := ctx.Client()
	check("API configuration", clientErr)

	// Check 2: session token
	warn("Session token", checkToken(ctx))

	// Check 3: cache opens
	cacheOK := check("Local cache", checkCache(ctx))

	var f *storage.Facade
	if clientErr == nil && cacheOK {
		var err error
		f, err = ctx.Facade(context.Background())
		if err != nil {
			check("Storage", err)
		}
	}

	// Check 4: API reachable
	if f != nil {
		check("API reachable", checkAPI(f))
	} else {
		skip("API reachable", "not configured")
	}

	// Check 5: queued changes
	if f != nil {
		warn("Pending changes", checkPending(f))
	} else {
		skip("Pending changes", "cache not available")
	}

	// Check 6: cached data consistency
	if f != nil {
		check("Cached data", checkCachedData(f))
	} else {
		skip("Cached data", "cache not available")
	}

	if f != nil {
		warn("Duplicate tasks", checkDuplicates(f))
	} else {
		skip("Duplicate tasks", "cache not available")
	}

	// Check 7: backups present (warning only)
	if location, err := ctx.CacheLocation(); err == nil && backup.Supported(location) {
		warn("Backups present", checkBackups(location))
	} else {
		skip("Backups present", "cache is not a local file")
	}

	// Check 8: clock/timezone sanity
	check("Clock/timezone", checkClock())

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkToken(ctx *cli.Context) error {
	if ctx.Config.Token != "" {
		return nil
	}
	if _, err := keyring.GetToken(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no session token stored; run 'hard75 login'")
		}
		return err
	}
	return nil
}

func checkCache(ctx *cli.Context) error {
	_, err := ctx.OpenCache()
	return err
}

func checkAPI(f *storage.Facade) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res := f.Health(ctx)
	if !res.OK() {
		return res.Err
	}
	if !res.Data.Database.Connected {
		return fmt.Errorf("API is up but its database is not connected")
	}
	return nil
}

func checkPending(f *storage.Facade) error {
	status := f.Status()
	if status.PendingChanges > 0 {
		return fmt.Errorf("%d changes are waiting to sync; run 'hard75 sync'", status.PendingChanges)
	}
	return nil
}

func checkCachedData(f *storage.Facade) error {
	export := f.ExportData(context.Background())
	if err := validation.ExportData(export.Data); err != nil {
		return err
	}
	return nil
}

func checkDuplicates(f *storage.Facade) error {
	tasks := f.GetTasks(context.Background())
	if dups := validation.DuplicateTaskTexts(tasks.Data); len(dups) > 0 {
		return fmt.Errorf("%d task texts are used by more than one task", len(dups))
	}
	return nil
}

func checkBackups(location string) error {
	backups, err := backup.NewManager(location).List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found; run 'hard75 backup create'")
	}
	return nil
}

func checkClock() error {
	now := time.Now()
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	if now.Location() == nil {
		return fmt.Errorf("no local timezone")
	}
	return nil
}
