package analytics

import (
	"github.com/tradebook/journal-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// GetClientOrders loads a client's stored canonical orders, optionally
// filtered to one symbol. Ordered by timestamp so matching input is already
// near-sorted; the matcher still applies its own deterministic sort.
func (d *Database) GetClientOrders(clientID, symbol string) ([]types.CanonicalOrder, error) {
	query := d.db.Where("client_id = ?", clientID)
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}

	var orders []types.CanonicalOrder
	err := query.Order("order_timestamp ASC").Find(&orders).Error
	return orders, err
}

// GetClientJournalEntries loads all journal entries for the enricher lookup.
func (d *Database) GetClientJournalEntries(clientID string) ([]types.JournalEntry, error) {
	var entries []types.JournalEntry
	err := d.db.Where("client_id = ?", clientID).Find(&entries).Error
	return entries, err
}
