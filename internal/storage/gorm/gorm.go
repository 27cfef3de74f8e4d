// Package gormstorage implements the storage.Backend interface over GORM.
// The same backend serves the sqlite and postgres drivers.
package gormstorage

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gamemaps/viewer/internal/database"
	"github.com/gamemaps/viewer/internal/model"
)

// Backend stores preferences in a relational table.
type Backend struct {
	db  *gorm.DB
	log zerolog.Logger
}

// New creates a GORM backend over an open connection.
func New(db *gorm.DB, log zerolog.Logger) *Backend {
	return &Backend{db: db, log: log}
}

// Init migrates the preferences table.
func (b *Backend) Init() error {
	if err := database.Setup(b.db); err != nil {
		return err
	}
	b.log.Debug().Str("dialect", b.db.Dialector.Name()).Msg("Preference store ready")
	return nil
}

// Close releases the underlying connection pool.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (b *Backend) Get(key string) (string, bool, error) {
	var pref model.Preference
	err := b.db.Where("key = ?", key).Take(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return string(pref.Value), true, nil
}

func (b *Backend) Set(key, value string) error {
	pref := model.Preference{
		Key:       key,
		Value:     datatypes.JSON(value),
		UpdatedAt: time.Now().UTC(),
	}
	err := b.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}
	return nil
}

func (b *Backend) Delete(key string) error {
	if err := b.db.Where("key = ?", key).Delete(&model.Preference{}).Error; err != nil {
		return fmt.Errorf("failed to delete preference %s: %w", key, err)
	}
	return nil
}
