package imports

import (
	"errors"
	"time"

	"github.com/tradebook/journal-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetBatch(batchID string) (*types.ImportBatch, error) {
	var batch types.ImportBatch
	if err := d.db.Where("batch_id = ?", batchID).First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

func (d *Database) GetClientOrders(clientID, symbol string) ([]types.CanonicalOrder, error) {
	query := d.db.Where("client_id = ?", clientID)
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}

	var orders []types.CanonicalOrder
	err := query.Order("order_timestamp ASC").Find(&orders).Error
	return orders, err
}

// GetExistingOrderIDs returns which of the candidate order ids are already
// stored for the client and broker, for duplicate dropping during import.
// Order ids are only unique per broker, so the same id under a different
// broker is a distinct order.
func (d *Database) GetExistingOrderIDs(clientID, broker string, orderIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(orderIDs) == 0 {
		return existing, nil
	}

	var found []string
	err := d.db.Model(&types.CanonicalOrder{}).
		Where("client_id = ? AND broker = ? AND order_id IN ?", clientID, broker, orderIDs).
		Pluck("order_id", &found).Error
	if err != nil {
		return nil, err
	}

	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}

// CreateBatchWithOrders persists the batch record, its accepted orders and
// the idempotency record in one transaction.
func (d *Database) CreateBatchWithOrders(batch *types.ImportBatch, orders []types.CanonicalOrder, idempotencyKey string) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(batch).Error; err != nil {
		tx.Rollback()
		return err
	}

	if len(orders) > 0 {
		if err := tx.Create(&orders).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	record := IdempotencyRecord{
		IdempotencyKey: idempotencyKey,
		ResourceID:     batch.BatchID,
		ResourceType:   "import_batch",
		ExpiresAt:      time.Now().Add(24 * time.Hour),
	}

	if err := tx.Create(&record).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// GetIdempotencyRecord retrieves an idempotency record by key
func (d *Database) GetIdempotencyRecord(key string) (*IdempotencyRecord, error) {
	var record IdempotencyRecord
	if err := d.db.Where("idempotency_key = ?", key).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &record, nil
		}
		return nil, err
	}
	return &record, nil
}

// DeleteExpiredIdempotencyRecords removes records past their expiry and
// returns how many were purged.
func (d *Database) DeleteExpiredIdempotencyRecords() (int64, error) {
	result := d.db.Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&IdempotencyRecord{})
	return result.RowsAffected, result.Error
}
