package types

import (
	"time"

	"gorm.io/gorm"
)

// ImportBatch records the outcome of one broker import request.
type ImportBatch struct {
	gorm.Model `json:"-"`
	BatchID    string    `gorm:"uniqueIndex" json:"batch_id"`
	ClientID   string    `json:"client_id"`
	Broker     string    `json:"broker"`
	Received   int       `json:"received"`
	Accepted   int       `json:"accepted"`
	Skipped    int       `json:"skipped"`
	Duplicates int       `json:"duplicates"`
	CreatedAt  time.Time `json:"created_at"`
}
