package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lingua-ledger/lingua-ledger/internal/config"
)

func storePath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, fmt.Sprintf("ledger-%s.db", cfg.OrganizationID))
}

func linkagePath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, fmt.Sprintf("ledger-%s.json", cfg.OrganizationID))
}

func lockPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, fmt.Sprintf("ledger-%s.lock", cfg.OrganizationID))
}

// Open acquires the single-instance lock, verifies linkage, opens the
// embedded store file and brings its schema up to date. The returned release
// func must be called when the process is done with the store.
//
// Error cases the caller must handle: ErrAlreadyRunning, ErrStoreUnlinked
// (call Link after the user confirms), *LinkageMismatchError (refuse), and
// any migration failure (fatal, store left at its last recorded version).
func Open(cfg *config.Config, log *slog.Logger) (*gorm.DB, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	lock, err := acquireLock(lockPath(cfg))
	if err != nil {
		return nil, nil, err
	}

	dbPath := storePath(cfg)
	_, statErr := os.Stat(dbPath)
	dbExists := statErr == nil

	link, linkErr := readLinkage(linkagePath(cfg))
	switch {
	case linkErr == nil:
		if !link.matches(cfg.OrganizationID, cfg.UserID) {
			lock.release()
			return nil, nil, &LinkageMismatchError{
				Path: dbPath,
				Have: *link,
				Want: Linkage{OrganizationID: cfg.OrganizationID, UserID: cfg.UserID},
			}
		}
	case os.IsNotExist(linkErr) && dbExists:
		lock.release()
		return nil, nil, ErrStoreUnlinked
	case os.IsNotExist(linkErr):
		// fresh store: first open stamps the linkage
		stamp := Linkage{OrganizationID: cfg.OrganizationID, UserID: cfg.UserID, LinkedAt: time.Now().UTC()}
		if err := writeLinkage(linkagePath(cfg), stamp); err != nil {
			lock.release()
			return nil, nil, fmt.Errorf("stamp linkage: %w", err)
		}
	default:
		lock.release()
		return nil, nil, linkErr
	}

	level := logger.Silent
	if cfg.DBDebug {
		level = logger.Info
	}
	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		lock.release()
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	if err := Migrate(gdb, log); err != nil {
		lock.release()
		return nil, nil, err
	}
	return gdb, lock.release, nil
}

// Link stamps an unlinked store with the caller's identity. Meant to run only
// after the user explicitly confirmed that the data file is theirs.
func Link(cfg *config.Config) error {
	stamp := Linkage{OrganizationID: cfg.OrganizationID, UserID: cfg.UserID, LinkedAt: time.Now().UTC()}
	return writeLinkage(linkagePath(cfg), stamp)
}
