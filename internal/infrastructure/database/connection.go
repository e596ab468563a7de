// Package database opens the sqlite connection the checkpoint store and
// ledger repository share. This substrate runs as a single process, so
// only the sqlite path is wired; there is no hosted-daemon deployment
// shape that would need a networked database.
package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/andrescamacho/econsim-go/internal/infrastructure/checkpoint"
	"github.com/andrescamacho/econsim-go/internal/infrastructure/config"
)

// NewConnection opens a sqlite database using the given config.
func NewConnection(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// NewTestConnection creates an in-memory SQLite database for testing, fully
// migrated.
func NewTestConnection() (*gorm.DB, error) {
	db, err := NewConnection(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate test database: %w", err)
	}
	return db, nil
}

// AutoMigrate runs auto-migration for every model this substrate persists.
func AutoMigrate(db *gorm.DB) error {
	if err := checkpoint.AutoMigrate(db); err != nil {
		return err
	}
	return checkpoint.AutoMigrateLedger(db)
}

// Close closes the database connection.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
