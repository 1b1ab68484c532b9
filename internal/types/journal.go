package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Defaults applied when journal metadata is missing or blank.
const (
	DefaultStrategy = "Not Selected"
	DefaultMistake  = "Not Specified"
	DefaultFeelings = "Not Selected"
)

// StringOrList absorbs legacy journal fields that arrive either as a single
// string or as an array of strings. It is normalized to one canonical string
// by the enricher and never propagates past it.
type StringOrList []string

// UnmarshalJSON accepts "scalping", ["scalping", "swing"] or null.
func (s *StringOrList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringOrList{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	*s = StringOrList(list)
	return nil
}

// Value stores the field as a JSON array so both legacy shapes round-trip
// through the database unchanged.
func (s StringOrList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringOrList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	switch v := value.(type) {
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(s))
	case []byte:
		return json.Unmarshal(v, (*[]string)(s))
	default:
		return fmt.Errorf("cannot scan %T into StringOrList", value)
	}
}

// JournalEntry is user-authored metadata attached to a day or trade group.
// Variant-shaped fields keep their raw form here; resolution to canonical
// strings happens in the journal enricher.
type JournalEntry struct {
	gorm.Model  `json:"-"`
	EntryID     string       `gorm:"uniqueIndex" json:"entry_id"`
	ClientID    string       `json:"client_id"`
	EntryDate   time.Time    `json:"entry_date"`
	Strategy    StringOrList `gorm:"type:text" json:"strategy"`
	Mistake     string       `json:"mistake"`
	Feelings    StringOrList `gorm:"type:text" json:"feelings"`
	StopLoss    float64      `json:"stop_loss"`
	TargetPrice float64      `json:"target_price"`
	Notes       string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
