package system

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/lockfile"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/models"
)

type StatusCmd struct {
	Errors bool `help:"Also list errors recorded during this run."`
}

func (cmd *StatusCmd) Run(ctx *cli.Context) error {
	f, err := ctx.Facade(context.Background())
	if err != nil {
		return err
	}
	printStatus(ctx, f.Status())

	if cmd.Errors {
		recent := f.Classifier().Recent()
		if len(recent) == 0 {
			ctx.Muted("No errors recorded")
		}
		for _, e := range recent {
			ctx.Printf("  [%s] %s %s: %s\n", e.Timestamp.Local().Format("15:04:05"), e.Category, e.Code, e.Message)
		}
	}
	return nil
}

func printStatus(ctx *cli.Context, status models.SyncStatus) {
	if status.IsOnline {
		ctx.Success("Online")
	} else {
		ctx.Warn("Offline")
	}
	if status.LastSync != nil {
		ctx.Printf("Last sync:       %s\n", status.LastSync.Local().Format("2006-01-02 15:04:05"))
	} else {
		ctx.Printf("Last sync:       never\n")
	}
	ctx.Printf("Pending changes: %d\n", status.PendingChanges)
}

type SyncCmd struct {
	Watch    bool          `help:"Keep running and sync on an interval until interrupted."`
	Interval time.Duration `help:"Sync interval for --watch. Defaults to --sync-interval."`
}

func (cmd *SyncCmd) Run(ctx *cli.Context) error {
	if cmd.Interval > 0 {
		ctx.Config.SyncInterval = cmd.Interval
	}
	bg := context.Background()
	f, err := ctx.Facade(bg)
	if err != nil {
		return err
	}

	if !cmd.Watch {
		before := f.Status().PendingChanges
		status := f.Sync(bg)
		if !status.IsOnline {
			ctx.Warn("Offline: %d changes waiting to sync", status.PendingChanges)
			return nil
		}
		ctx.Success("Synced %d of %d changes", before-status.PendingChanges, before)
		if status.PendingChanges > 0 {
			ctx.Warn("%d changes will be retried", status.PendingChanges)
		}
		return nil
	}

	dir, err := ctx.ConfigDir()
	if err != nil {
		return err
	}
	lock, err := lockfile.Acquire(dir)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("Failed to release sync lock", "error", err)
		}
	}()

	runCtx, stop := signal.NotifyContext(bg, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	unsubscribe := f.Subscribe(func(status models.SyncStatus) {
		state := "offline"
		if status.IsOnline {
			state = "online"
		}
		ctx.Muted("[%s] %s, %d pending", time.Now().Format("15:04:05"), state, status.PendingChanges)
	})
	defer unsubscribe()

	ctx.Println("Watching for changes to sync. Press Ctrl+C to stop.")
	f.Sync(runCtx)
	<-f.Start(runCtx)
	ctx.Println("Stopped.")
	return nil
}
