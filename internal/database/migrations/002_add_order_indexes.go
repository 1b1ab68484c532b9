package migrations

import "gorm.io/gorm"

// AddOrderIndexes creates the indexes backing the matching and analytics
// query patterns.
// Using raw SQL for index creation to have more control over index types
func AddOrderIndexes(db *gorm.DB) error {
	indexes := []string{
		// Per-symbol matching runs
		`CREATE INDEX IF NOT EXISTS idx_canonical_orders_symbol
		 ON canonical_orders(symbol)`,

		// Client order history in timestamp order (the matcher's input)
		`CREATE INDEX IF NOT EXISTS idx_canonical_orders_client_ts
		 ON canonical_orders(client_id, order_timestamp)`,

		// Duplicate detection on import is covered by the unique
		// (client_id, broker, order_id) index from the schema migration.

		// Journal entry lookup per client and day
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_client_date
		 ON journal_entries(client_id, entry_date)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
