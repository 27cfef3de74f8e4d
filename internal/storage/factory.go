// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gamemaps/viewer/internal/config"
	"github.com/gamemaps/viewer/internal/database"
	gormstorage "github.com/gamemaps/viewer/internal/storage/gorm"
	"github.com/gamemaps/viewer/internal/storage/memory"
)

// NewBackend creates a preference backend based on configuration.
func NewBackend(cfg config.StorageConfig, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		db, err := database.NewManager(log).GetPostgresDB()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return gormstorage.New(db, log), nil
	case "sqlite":
		db, err := database.NewManager(log).GetSqliteDB(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		return gormstorage.New(db, log), nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
