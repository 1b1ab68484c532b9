package broker

import (
	"strconv"
	"strings"
	"time"

	"github.com/tradebook/journal-api/internal/types"
)

// IST is the exchange timezone used to interpret broker timestamps that
// carry no offset of their own.
var IST = time.FixedZone("IST", 19800)

// fieldMap describes one broker's raw record layout: which source field
// feeds each canonical field. Unmapped or absent source fields leave the
// canonical field at its zero value.
type fieldMap struct {
	ID        string
	Timestamp string
	Symbol    string
	Quantity  string
	Price     string
	Side      string
	Status    string
}

// brokerFields is the per-broker mapping table. Keys are lowercase broker
// identifiers as sent on the import endpoint.
var brokerFields = map[string]fieldMap{
	"zerodha": {
		ID:        "order_id",
		Timestamp: "order_timestamp",
		Symbol:    "tradingsymbol",
		Quantity:  "filled_quantity",
		Price:     "average_price",
		Side:      "transaction_type",
		Status:    "status",
	},
	"upstox": {
		ID:        "order_id",
		Timestamp: "order_timestamp",
		Symbol:    "trading_symbol",
		Quantity:  "filled_quantity",
		Price:     "average_price",
		Side:      "transaction_type",
		Status:    "status",
	},
	"angelone": {
		ID:        "orderid",
		Timestamp: "updatetime",
		Symbol:    "tradingsymbol",
		Quantity:  "filledshares",
		Price:     "averageprice",
		Side:      "transactiontype",
		Status:    "status",
	},
	"dhan": {
		ID:        "orderId",
		Timestamp: "updateTime",
		Symbol:    "tradingSymbol",
		Quantity:  "filledQty",
		Price:     "averageTradedPrice",
		Side:      "transactionType",
		Status:    "orderStatus",
	},
	"fyers": {
		ID:        "id",
		Timestamp: "orderDateTime",
		Symbol:    "symbol",
		Quantity:  "filledQty",
		Price:     "tradedPrice",
		Side:      "side",
		Status:    "status",
	},
}

// timestamp layouts seen across broker APIs and exports, tried in order.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-Jan-2006 15:04:05",
	"2006-01-02T15:04:05",
}

// SupportedBrokers returns the lowercase identifiers the normalizer knows.
func SupportedBrokers() []string {
	names := make([]string, 0, len(brokerFields))
	for name := range brokerFields {
		names = append(names, name)
	}
	return names
}

// Normalize projects one raw broker record through the broker's field map
// into a CanonicalOrder. An unknown broker yields an empty order rather
// than an error; callers must check Matchable before using the result.
func Normalize(brokerName string, raw types.RawOrder) types.CanonicalOrder {
	fields, ok := brokerFields[strings.ToLower(brokerName)]
	if !ok {
		return types.CanonicalOrder{}
	}

	order := types.CanonicalOrder{
		Broker:         strings.ToLower(brokerName),
		OrderID:        asString(raw[fields.ID]),
		Symbol:         strings.TrimSpace(asString(raw[fields.Symbol])),
		Side:           normalizeSide(raw[fields.Side]),
		Status:         normalizeStatus(raw[fields.Status]),
		Quantity:       asInt64(raw[fields.Quantity]),
		AveragePrice:   asFloat64(raw[fields.Price]),
		OrderTimestamp: parseTimestamp(raw[fields.Timestamp]),
	}

	// Journal linkage is attached by the importer, not broker-specific.
	order.JournalEntryID = asString(raw["journal_entry_id"])

	return order
}

// normalizeSide folds the broker side vocabularies into BUY/SELL.
// Fyers uses numeric sides (1 buy, -1 sell).
func normalizeSide(v interface{}) string {
	switch strings.ToUpper(strings.TrimSpace(asString(v))) {
	case "BUY", "B", "1":
		return types.SideBuy
	case "SELL", "S", "-1":
		return types.SideSell
	}
	return ""
}

// normalizeStatus collapses broker fill states into COMPLETE/OTHER. Only
// COMPLETE orders participate in matching.
func normalizeStatus(v interface{}) string {
	switch strings.ToUpper(strings.TrimSpace(asString(v))) {
	case "COMPLETE", "COMPLETED", "TRADED", "FILLED", "2":
		return types.StatusComplete
	}
	return types.StatusOther
}

func parseTimestamp(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case float64:
		// Epoch seconds from JSON numbers.
		if t > 0 {
			return time.Unix(int64(t), 0)
		}
		return time.Time{}
	case int64:
		if t > 0 {
			return time.Unix(t, 0)
		}
		return time.Time{}
	}

	s := strings.TrimSpace(asString(v))
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, s, IST); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case string:
		// Brokers occasionally send quantities as strings.
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

func asFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return 0
}
