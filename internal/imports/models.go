package imports

import (
	"time"

	"gorm.io/gorm"
)

type IdempotencyRecord struct {
	gorm.Model
	IdempotencyKey string    `gorm:"uniqueIndex" json:"idempotency_key"`
	ResourceID     string    `json:"resource_id"`
	ResourceType   string    `json:"resource_type"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// ImportRequest is the import endpoint body: raw broker records exactly as
// fetched from the broker API or parsed from an export.
type ImportRequest struct {
	Records []map[string]interface{} `json:"records" binding:"required"`
	// JournalEntryID optionally links every record in the batch to one
	// journal entry; per-record journal_entry_id fields take precedence.
	JournalEntryID string `json:"journal_entry_id"`
}
