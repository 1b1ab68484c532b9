package types

import (
	"time"

	"gorm.io/gorm"
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	StatusComplete = "COMPLETE"
	StatusOther    = "OTHER"
)

// RawOrder is one unparsed record as returned by a broker API or export.
// Field names differ per broker; the broker package projects these into
// CanonicalOrder via per-broker mapping tables.
type RawOrder map[string]interface{}

// CanonicalOrder is the broker-neutral shape of one executed order.
// Orders are immutable once stored; matching only consumes remaining
// quantity via copies. Broker order ids are only unique per broker, so
// the uniqueness constraint spans client, broker and order id.
type CanonicalOrder struct {
	gorm.Model     `json:"-"`
	OrderID        string    `gorm:"uniqueIndex:idx_orders_client_broker_order,priority:3" json:"order_id"`
	ClientID       string    `gorm:"uniqueIndex:idx_orders_client_broker_order,priority:1" json:"client_id"`
	Broker         string    `gorm:"uniqueIndex:idx_orders_client_broker_order,priority:2" json:"broker"`
	Symbol         string    `json:"symbol"`
	Side           string    `json:"side"`   // BUY or SELL
	Status         string    `json:"status"` // COMPLETE or OTHER
	Quantity       int64     `json:"quantity"`
	AveragePrice   float64   `json:"average_price"`
	OrderTimestamp time.Time `json:"order_timestamp"`
	// JournalEntryID is a lookup key into journal entries, not an owned
	// relation. Empty when the order was never journaled.
	JournalEntryID string `json:"journal_entry_id,omitempty"`
}

// MissingFields reports which fields required for matching are absent.
// An order with any missing field is malformed and must be skipped,
// never aborted on.
func (o *CanonicalOrder) MissingFields() []string {
	var missing []string
	if o.Symbol == "" {
		missing = append(missing, "symbol")
	}
	if o.Side != SideBuy && o.Side != SideSell {
		missing = append(missing, "side")
	}
	if o.Quantity == 0 {
		missing = append(missing, "quantity")
	}
	if o.OrderTimestamp.IsZero() {
		missing = append(missing, "timestamp")
	}
	return missing
}

// Matchable reports whether the order can participate in trade matching:
// all required fields present, positive quantity, non-negative price and
// a COMPLETE status.
func (o *CanonicalOrder) Matchable() bool {
	return len(o.MissingFields()) == 0 &&
		o.Quantity > 0 &&
		o.AveragePrice >= 0 &&
		o.Status == StatusComplete
}
