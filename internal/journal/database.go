package journal

import (
	"errors"

	"github.com/tradebook/journal-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateEntry(entry *types.JournalEntry) error {
	return d.db.Create(entry).Error
}

func (d *Database) GetEntry(entryID string) (*types.JournalEntry, error) {
	var entry types.JournalEntry
	if err := d.db.Where("entry_id = ?", entryID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (d *Database) GetEntryByEntryIDAndClientID(entryID, clientID string) (*types.JournalEntry, error) {
	var entry types.JournalEntry
	if err := d.db.Where("entry_id = ? AND client_id = ?", entryID, clientID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (d *Database) GetClientEntries(clientID string) ([]types.JournalEntry, error) {
	var entries []types.JournalEntry
	err := d.db.Where("client_id = ?", clientID).Order("entry_date ASC").Find(&entries).Error
	return entries, err
}
