package imports

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tradebook/journal-api/internal/types"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A second pooled connection would see its own empty memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&types.CanonicalOrder{},
		&types.ImportBatch{},
		&IdempotencyRecord{},
	))

	return NewService(db)
}

func zerodhaRecord(orderID string, qty int, price float64) map[string]interface{} {
	return map[string]interface{}{
		"order_id":         orderID,
		"order_timestamp":  "2026-03-04 10:30:00",
		"tradingsymbol":    "RELIANCE",
		"transaction_type": "BUY",
		"filled_quantity":  qty,
		"average_price":    price,
		"status":           "COMPLETE",
	}
}

func fyersRecord(orderID string, qty int, price float64) map[string]interface{} {
	return map[string]interface{}{
		"id":            orderID,
		"orderDateTime": "04-Mar-2026 10:30:00",
		"symbol":        "INFY",
		"side":          "1",
		"filledQty":     qty,
		"tradedPrice":   price,
		"status":        "2",
	}
}

func TestImportOrders(t *testing.T) {
	svc := newTestService(t)

	req := ImportRequest{
		Records: []map[string]interface{}{
			zerodhaRecord("Z1", 50, 2450.5),
			zerodhaRecord("Z2", 25, 2460.0),
		},
		JournalEntryID: "JRN_1",
	}

	batch, err := svc.ImportOrders("client-1", "zerodha", req, "key-1")
	require.NoError(t, err)

	assert.NotEmpty(t, batch.BatchID)
	assert.Equal(t, 2, batch.Received)
	assert.Equal(t, 2, batch.Accepted)
	assert.Equal(t, 0, batch.Skipped)
	assert.Equal(t, 0, batch.Duplicates)

	orders, err := svc.GetClientOrders("client-1", "")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "zerodha", orders[0].Broker)
	assert.Equal(t, "JRN_1", orders[0].JournalEntryID)
}

func TestImportOrdersSkipsMalformed(t *testing.T) {
	svc := newTestService(t)

	malformed := zerodhaRecord("Z3", 0, 2450.5)
	noSymbol := zerodhaRecord("Z4", 10, 2450.5)
	delete(noSymbol, "tradingsymbol")

	batch, err := svc.ImportOrders("client-1", "zerodha", ImportRequest{
		Records: []map[string]interface{}{
			zerodhaRecord("Z1", 50, 2450.5),
			malformed,
			noSymbol,
		},
	}, "key-1")
	require.NoError(t, err)

	assert.Equal(t, 3, batch.Received)
	assert.Equal(t, 1, batch.Accepted)
	assert.Equal(t, 2, batch.Skipped)
}

func TestImportOrdersDropsDuplicates(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.ImportOrders("client-1", "zerodha", ImportRequest{
		Records: []map[string]interface{}{zerodhaRecord("Z1", 50, 2450.5)},
	}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Accepted)

	// Same broker order id again, plus an in-batch repeat of a new id.
	second, err := svc.ImportOrders("client-1", "zerodha", ImportRequest{
		Records: []map[string]interface{}{
			zerodhaRecord("Z1", 50, 2450.5),
			zerodhaRecord("Z2", 25, 2460.0),
			zerodhaRecord("Z2", 25, 2460.0),
		},
	}, "key-2")
	require.NoError(t, err)

	assert.Equal(t, 3, second.Received)
	assert.Equal(t, 1, second.Accepted)
	assert.Equal(t, 2, second.Duplicates)

	orders, err := svc.GetClientOrders("client-1", "")
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestImportOrdersIdempotentReplay(t *testing.T) {
	svc := newTestService(t)

	req := ImportRequest{
		Records: []map[string]interface{}{zerodhaRecord("Z1", 50, 2450.5)},
	}

	first, err := svc.ImportOrders("client-1", "zerodha", req, "key-1")
	require.NoError(t, err)

	replay, err := svc.ImportOrders("client-1", "zerodha", req, "key-1")
	require.NoError(t, err)

	assert.Equal(t, first.BatchID, replay.BatchID)

	orders, err := svc.GetClientOrders("client-1", "")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestImportOrdersUnknownBroker(t *testing.T) {
	svc := newTestService(t)

	// Unknown brokers normalize every record to an empty order, so the
	// whole batch is skipped rather than rejected.
	batch, err := svc.ImportOrders("client-1", "robinhood", ImportRequest{
		Records: []map[string]interface{}{zerodhaRecord("Z1", 50, 2450.5)},
	}, "key-1")
	require.NoError(t, err)

	assert.Equal(t, 1, batch.Received)
	assert.Equal(t, 0, batch.Accepted)
	assert.Equal(t, 1, batch.Skipped)
}

func TestImportOrdersSymbolFilter(t *testing.T) {
	svc := newTestService(t)

	tcs := zerodhaRecord("Z2", 10, 3900.0)
	tcs["tradingsymbol"] = "TCS"

	_, err := svc.ImportOrders("client-1", "zerodha", ImportRequest{
		Records: []map[string]interface{}{zerodhaRecord("Z1", 50, 2450.5), tcs},
	}, "key-1")
	require.NoError(t, err)

	orders, err := svc.GetClientOrders("client-1", "TCS")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "TCS", orders[0].Symbol)
}

func TestGetExistingOrderIDs(t *testing.T) {
	svc := newTestService(t)

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, fmt.Sprintf("Z%d", i))
	}

	_, err := svc.ImportOrders("client-1", "zerodha", ImportRequest{
		Records: []map[string]interface{}{
			zerodhaRecord(ids[0], 10, 100),
			zerodhaRecord(ids[1], 10, 100),
		},
	}, "key-1")
	require.NoError(t, err)

	existing, err := svc.db.GetExistingOrderIDs("client-1", "zerodha", ids)
	require.NoError(t, err)
	assert.True(t, existing[ids[0]])
	assert.True(t, existing[ids[1]])
	assert.False(t, existing[ids[2]])

	// Same ids under another broker are distinct orders, not duplicates.
	other, err := svc.db.GetExistingOrderIDs("client-1", "fyers", ids)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestImportOrdersSameOrderIDAcrossClients(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.ImportOrders("client-1", "zerodha", ImportRequest{
		Records: []map[string]interface{}{zerodhaRecord("Z1", 50, 2450.5)},
	}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Accepted)

	// Another client importing the same broker order id is a distinct
	// order, not a duplicate, and must not fail the batch.
	second, err := svc.ImportOrders("client-2", "zerodha", ImportRequest{
		Records: []map[string]interface{}{zerodhaRecord("Z1", 50, 2450.5)},
	}, "key-2")
	require.NoError(t, err)
	assert.Equal(t, 1, second.Accepted)
	assert.Equal(t, 0, second.Duplicates)

	orders, err := svc.GetClientOrders("client-2", "")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "Z1", orders[0].OrderID)
}

func TestImportOrdersSameOrderIDAcrossBrokers(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.ImportOrders("client-1", "zerodha", ImportRequest{
		Records: []map[string]interface{}{zerodhaRecord("100", 50, 2450.5)},
	}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Accepted)

	// Order ids are only unique per broker: the same id from another
	// broker must be stored, not dropped as a duplicate.
	second, err := svc.ImportOrders("client-1", "fyers", ImportRequest{
		Records: []map[string]interface{}{fyersRecord("100", 25, 410.0)},
	}, "key-2")
	require.NoError(t, err)
	assert.Equal(t, 1, second.Accepted)
	assert.Equal(t, 0, second.Duplicates)

	orders, err := svc.GetClientOrders("client-1", "")
	require.NoError(t, err)
	require.Len(t, orders, 2)
}
