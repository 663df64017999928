package backups

import (
	"fmt"
	"path/filepath"

	"github.com/julianstephens/hard75/internal/backup"
	"github.com/julianstephens/hard75/internal/cli"
	apperrors "github.com/julianstephens/hard75/internal/errors"
)

func manager(ctx *cli.Context) (*backup.Manager, error) {
	location, err := ctx.CacheLocation()
	if err != nil {
		return nil, err
	}
	if !backup.Supported(location) {
		return nil, apperrors.Configuration(backup.ErrUnsupported.Error())
	}
	return backup.NewManager(location), nil
}

type BackupCreateCmd struct{}

func (cmd *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	path, err := mgr.Create()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	ctx.Success("Backup created: %s", path)
	return nil
}

type BackupListCmd struct{}

func (cmd *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		ctx.Println("No backups found.")
		return nil
	}

	ctx.Printf("Available backups (%d):\n\n", len(backups))
	for i, b := range backups {
		ctx.Printf("%2d. %s  %s  (%.1f KB)\n", i+1, b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), float64(b.Size)/1024)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	Backup string `arg:"" optional:"" help:"Backup file, or its number from 'backup list'. Defaults to the newest."`
	Yes    bool   `help:"Do not ask for confirmation."`
}

func (cmd *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return err
	}

	path := cmd.Backup
	var n int
	switch {
	case path == "":
		if len(backups) == 0 {
			return apperrors.Validation("no backups found")
		}
		path = backups[0].Path
	case len(path) < 4:
		if _, err := fmt.Sscanf(path, "%d", &n); err == nil {
			if n < 1 || n > len(backups) {
				return apperrors.Validation(fmt.Sprintf("backup %d does not exist", n))
			}
			path = backups[n-1].Path
		}
	}

	ok, err := ctx.Confirm(fmt.Sprintf("Restore the cache from %s? Unsynced changes made since will be lost.", filepath.Base(path)), cmd.Yes)
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Restore cancelled.")
		return nil
	}

	// the cache file is replaced underneath any open handle
	if err := ctx.Close(); err != nil {
		return err
	}
	if err := mgr.Restore(path); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	ctx.Success("Cache restored from %s", path)
	return nil
}
