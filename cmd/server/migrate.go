package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soaringjerry/hrpulse/internal/api"
	"github.com/soaringjerry/hrpulse/internal/catalog"
	"github.com/soaringjerry/hrpulse/internal/config"
	dbstore "github.com/soaringjerry/hrpulse/internal/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQLite migrations and seed the department catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Storage.Driver != "sqlite" {
				return fmt.Errorf("migrate needs storage.driver=sqlite, got %q", cfg.Storage.Driver)
			}
			db, _, err := openSQLite(cfg.Storage)
			if err != nil {
				return err
			}
			defer closeDB(db)
			logger.Info("migrations applied", zap.String("path", cfg.Storage.SQLitePath))
			return nil
		},
	}
}

// openStore returns the configured record store and a close func.
func openStore(sc config.StorageConfig) (api.Store, func(), error) {
	if sc.Driver != "sqlite" {
		return api.NewMemoryStore(catalog.Default().Departments), func() {}, nil
	}
	db, store, err := openSQLite(sc)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { closeDB(db) }, nil
}

func openSQLite(sc config.StorageConfig) (*sql.DB, api.Store, error) {
	if dir := filepath.Dir(sc.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := dbstore.Open(sc.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	store, err := dbstore.NewStore(db, sc.MigrationsDir, catalog.Default().Departments)
	if err != nil {
		closeDB(db)
		return nil, nil, err
	}
	return db, store, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Warn("failed to close sqlite db", zap.Error(err))
	}
}
