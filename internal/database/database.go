package database

import (
	"fmt"
	"os"

	"github.com/tradebook/journal-api/internal/database/migrations"
	"github.com/tradebook/journal-api/internal/imports"
	"github.com/tradebook/journal-api/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase initializes and returns a new GORM DB connection.
// The sqlite path comes from JOURNAL_DB_PATH, defaulting to journal.db.
func NewDatabase() (*gorm.DB, error) {
	path := os.Getenv("JOURNAL_DB_PATH")
	if path == "" {
		path = "journal.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.AddCanonicalOrders(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Auto-migrate other schemas
	err = db.AutoMigrate(
		&types.JournalEntry{},
		&imports.IdempotencyRecord{},
	)
	if err != nil {
		return nil, err
	}

	// Index creation needs the journal entry table in place
	if err := migrations.AddOrderIndexes(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
