// Package backup snapshots the on-disk cache before destructive commands
// (reset, import) and restores it on request.
package backup

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/hard75/internal/constants"
	"github.com/julianstephens/hard75/internal/logger"
)

const (
	// MaxBackups is the number of backups kept after rotation
	MaxBackups = 14
	// DirName is the backup directory, created next to the cache file
	DirName = "backups"
	// FilePrefix starts every backup file name
	FilePrefix = constants.AppName + "-cache-"

	timestampFormat = "20060102-150405"
)

// ErrUnsupported is returned for caches that do not live in a local file.
var ErrUnsupported = errors.New("backups are only supported for file-backed caches")

// Info describes one backup file.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager creates, lists and restores backups of one cache file.
type Manager struct {
	cachePath string
	dir       string
	ext       string
	now       func() time.Time
}

// NewManager returns a manager for the cache at cachePath. Backups go to a
// "backups" directory next to it.
func NewManager(cachePath string) *Manager {
	ext := filepath.Ext(cachePath)
	if ext == "" {
		ext = ".db"
	}
	return &Manager{
		cachePath: cachePath,
		dir:       filepath.Join(filepath.Dir(cachePath), DirName),
		ext:       ext,
		now:       time.Now,
	}
}

// Supported reports whether location names a local cache file.
func Supported(location string) bool {
	return location != "" &&
		location != ":memory:" &&
		!strings.HasPrefix(location, "postgres://") &&
		!strings.HasPrefix(location, "postgresql://")
}

// Dir returns the backup directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Create snapshots the cache and prunes old backups.
func (m *Manager) Create() (string, error) {
	path, err := m.create()
	if err != nil {
		return "", err
	}
	if err := m.rotate(); err != nil {
		logger.Warn("Failed to rotate old backups", "error", err)
	}
	return path, nil
}

func (m *Manager) create() (string, error) {
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.cachePath); err != nil {
		return "", fmt.Errorf("cache does not exist: %s", m.cachePath)
	}

	stamp := m.now().Format(timestampFormat)
	path := filepath.Join(m.dir, FilePrefix+stamp+m.ext)
	for i := 1; fileExists(path); i++ {
		if i > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		path = filepath.Join(m.dir, fmt.Sprintf("%s%s-%d%s", FilePrefix, stamp, i, m.ext))
	}

	if m.isSQLite() {
		if err := vacuumInto(m.cachePath, path); err != nil {
			return "", fmt.Errorf("failed to back up cache: %w", err)
		}
	} else if err := copyFile(m.cachePath, path); err != nil {
		return "", fmt.Errorf("failed to back up cache: %w", err)
	}

	logger.Info("Created cache backup", "path", path)
	return path, nil
}

// List returns the backups, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, FilePrefix) || !strings.HasSuffix(name, m.ext) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, FilePrefix), m.ext)
		if len(stamp) > len(timestampFormat) {
			stamp = stamp[:len(timestampFormat)]
		}
		ts, err := time.ParseInLocation(timestampFormat, stamp, time.Local)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{Path: filepath.Join(m.dir, name), Timestamp: ts, Size: info.Size()})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			// same second: a longer "-N" suffix was written later
			pi, pj := backups[i].Path, backups[j].Path
			if len(pi) != len(pj) {
				return len(pi) > len(pj)
			}
			return pi > pj
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the cache with backupPath. The current cache is backed up
// first. The cache must be closed by the caller.
func (m *Manager) Restore(backupPath string) error {
	if !fileExists(backupPath) {
		return fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if m.isSQLite() {
		if err := verify(backupPath); err != nil {
			return fmt.Errorf("backup file is corrupted or invalid: %w", err)
		}
	}

	if fileExists(m.cachePath) {
		current, err := m.create()
		if err != nil {
			return fmt.Errorf("failed to back up current cache before restore: %w", err)
		}
		logger.Info("Backed up current cache before restore", "path", current)
	}

	tmp := m.cachePath + ".restore.tmp"
	if err := copyFile(backupPath, tmp); err != nil {
		return fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.cachePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to restore cache: %w", err)
	}
	return nil
}

func (m *Manager) isSQLite() bool {
	return m.ext != ".json"
}

func vacuumInto(src, dst string) error {
	db, err := sql.Open("sqlite", src+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&n); err != nil {
		return fmt.Errorf("cache appears to be corrupted: %w", err)
	}
	if _, err := db.Exec("VACUUM INTO ?", dst); err != nil {
		db.Close()
		return copyFile(src, dst)
	}
	return nil
}

func verify(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	var n int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&n)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
