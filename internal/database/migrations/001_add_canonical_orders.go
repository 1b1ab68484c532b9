package migrations

import (
	"github.com/tradebook/journal-api/internal/types"
	"gorm.io/gorm"
)

// AddCanonicalOrders creates the canonical order and import batch tables.
func AddCanonicalOrders(db *gorm.DB) error {
	if err := db.AutoMigrate(&types.CanonicalOrder{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&types.ImportBatch{}); err != nil {
		return err
	}

	return nil
}
