package system

import (
	"context"

	"github.com/julianstephens/hard75/internal/backup"
	"github.com/julianstephens/hard75/internal/cli"
	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/models"
)

// ResetCmd wipes the local cache and the queue of unsynced changes. Server
// data is untouched.
type ResetCmd struct {
	Yes      bool `help:"Do not ask for confirmation."`
	NoBackup bool `help:"Skip the automatic backup taken before the reset."`
}

func (cmd *ResetCmd) Run(ctx *cli.Context) error {
	ok, err := ctx.Confirm("Delete all locally cached data and unsynced changes?", cmd.Yes)
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Reset cancelled.")
		return nil
	}

	if !cmd.NoBackup {
		PerformAutomaticBackup(ctx)
	}

	// the API is not needed to wipe local data
	ctx.Config.Offline = true
	pending := 0
	if f, err := ctx.Facade(context.Background()); err == nil {
		pending = f.Status().PendingChanges
		f.ClearAllData()
	} else {
		store, err := ctx.OpenCache()
		if err != nil {
			return err
		}
		var queued []models.PendingChange
		if store.Get(constants.CacheKeyPendingChanges, &queued) {
			pending = len(queued)
		}
		store.Clear()
	}
	logger.Info("Local data reset", "dropped_changes", pending)

	ctx.Success("Local data cleared")
	if pending > 0 {
		ctx.Warn("%d unsynced changes were discarded", pending)
	}
	return nil
}

// PerformAutomaticBackup snapshots a file-backed cache. Failures are logged
// and never interrupt the command.
func PerformAutomaticBackup(ctx *cli.Context) {
	location, err := ctx.CacheLocation()
	if err != nil || !backup.Supported(location) {
		return
	}
	path, err := backup.NewManager(location).Create()
	if err != nil {
		logger.Warn("Automatic backup failed", "error", err)
		return
	}
	ctx.Muted("Backup saved to %s", path)
}
