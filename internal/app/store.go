package app

import (
	"fmt"

	"gstdirectory/config"
	"gstdirectory/pkg/directory"
	"gstdirectory/pkg/storage/file"
	"gstdirectory/pkg/storage/memory"
	"gstdirectory/pkg/storage/postgres"
	"gstdirectory/pkg/storage/sqlite"

	"go.uber.org/zap"
)

// OpenStore builds the backend selected by cfg.Store.Backend.
func OpenStore(cfg *config.Config, logger *zap.Logger) (directory.Store, error) {
	logger.Info("opening store", zap.String("backend", cfg.Store.Backend))

	switch cfg.Store.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil

	case config.BackendFile:
		return file.NewStore(cfg.Store.File.Path)

	case config.BackendSQLite:
		return sqlite.Open(cfg.Store.SQLite.Path)

	case config.BackendPostgres:
		client, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Environment)
		if err != nil {
			return nil, directory.NewStorageError("connect", err)
		}
		return postgres.NewStore(client), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
