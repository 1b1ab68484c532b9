package types

import "time"

const (
	TradeLong  = "LONG"
	TradeShort = "SHORT"
)

// CompletedTrade is one reconstructed round-trip trade: an entry matched
// against an exit for some quantity, or a still-open position when
// ExitTimestamp is nil. Plain data, safe to serialize for table and chart
// consumers.
type CompletedTrade struct {
	TradeID         string     `json:"trade_id"`
	Symbol          string     `json:"symbol"`
	Side            string     `json:"side"` // LONG or SHORT
	Quantity        int64      `json:"quantity"`
	EntryPrice      float64    `json:"entry_price"`
	ExitPrice       float64    `json:"exit_price"`
	PnL             float64    `json:"pnl"`
	ReturnPct       float64    `json:"return_pct"`
	EntryTimestamp  time.Time  `json:"entry_timestamp"`
	ExitTimestamp   *time.Time `json:"exit_timestamp,omitempty"`
	DurationMinutes float64    `json:"duration_minutes"`
	JournalEntryID  string     `json:"journal_entry_id,omitempty"`

	// Filled by the enricher, always resolved to canonical single values.
	Strategy    string  `json:"strategy"`
	Mistake     string  `json:"mistake"`
	Feelings    string  `json:"feelings"`
	Notes       string  `json:"notes"`
	StopLoss    float64 `json:"stop_loss"`
	TargetPrice float64 `json:"target_price"`
}

// Open reports whether the trade represents an unmatched open position.
func (t *CompletedTrade) Open() bool {
	return t.ExitTimestamp == nil
}
