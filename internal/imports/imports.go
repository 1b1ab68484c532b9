package imports

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tradebook/journal-api/internal/auth"
	"github.com/tradebook/journal-api/internal/broker"
	"github.com/tradebook/journal-api/internal/types"
	"github.com/tradebook/journal-api/pkg/response"
)

// Service handles broker order ingestion: raw records in, canonical orders
// stored, with per-request idempotency.
type Service struct {
	db *Database
}

// NewService creates a new import service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// ImportOrders normalizes and stores one batch of raw broker records.
// Malformed records are skipped and counted, never failing the batch;
// records whose broker order id is already stored count as duplicates.
// A repeated Idempotency-Key returns the original batch summary.
func (s *Service) ImportOrders(clientID, brokerName string, req ImportRequest, idempotencyKey string) (*types.ImportBatch, error) {
	logger := log.With().
		Str("client_id", clientID).
		Str("broker", brokerName).
		Str("service", "imports").
		Logger()

	// Check for existing idempotency record
	record, err := s.db.GetIdempotencyRecord(idempotencyKey)
	if err == nil && record != nil && record.ExpiresAt.After(time.Now()) {
		existing, err := s.db.GetBatch(record.ResourceID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			logger.Info().Str("batch_id", existing.BatchID).Msg("returning existing import batch")
			return existing, nil
		}
	}

	batch := &types.ImportBatch{
		BatchID:   "IMP_" + uuid.New().String(),
		ClientID:  clientID,
		Broker:    brokerName,
		Received:  len(req.Records),
		CreatedAt: time.Now(),
	}

	logger.Info().
		Str("batch_id", batch.BatchID).
		Int("received", batch.Received).
		Msg("starting order import")

	accepted := make([]types.CanonicalOrder, 0, len(req.Records))
	candidateIDs := make([]string, 0, len(req.Records))
	for _, raw := range req.Records {
		order := broker.Normalize(brokerName, raw)
		order.ClientID = clientID
		if order.JournalEntryID == "" {
			order.JournalEntryID = req.JournalEntryID
		}

		if missing := order.MissingFields(); len(missing) > 0 ||
			order.Quantity <= 0 || order.AveragePrice < 0 {
			logger.Warn().
				Str("order_id", order.OrderID).
				Strs("missing_fields", missing).
				Int64("quantity", order.Quantity).
				Float64("average_price", order.AveragePrice).
				Msg("skipping malformed record")
			batch.Skipped++
			continue
		}

		accepted = append(accepted, order)
		candidateIDs = append(candidateIDs, order.OrderID)
	}

	existing, err := s.db.GetExistingOrderIDs(clientID, strings.ToLower(brokerName), candidateIDs)
	if err != nil {
		return nil, err
	}

	// Drop duplicates both against storage and within the batch itself.
	seen := make(map[string]bool, len(accepted))
	fresh := accepted[:0]
	for _, order := range accepted {
		if existing[order.OrderID] || seen[order.OrderID] {
			batch.Duplicates++
			continue
		}
		seen[order.OrderID] = true
		fresh = append(fresh, order)
	}
	batch.Accepted = len(fresh)

	if err := s.db.CreateBatchWithOrders(batch, fresh, idempotencyKey); err != nil {
		logger.Error().Err(err).Msg("failed to persist import batch")
		return nil, err
	}

	logger.Info().
		Str("batch_id", batch.BatchID).
		Int("accepted", batch.Accepted).
		Int("skipped", batch.Skipped).
		Int("duplicates", batch.Duplicates).
		Msg("order import completed")

	return batch, nil
}

// GetClientOrders returns the stored canonical orders for a client
func (s *Service) GetClientOrders(clientID, symbol string) ([]types.CanonicalOrder, error) {
	return s.db.GetClientOrders(clientID, symbol)
}

// GetDB exposes the database layer for the background processor
func (s *Service) GetDB() *Database {
	return s.db
}

// GinHandlers contains HTTP handlers for import endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for import endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// ImportOrdersHandler handles POST requests to import raw broker records
// Requires a valid JWT token and idempotency key in headers
// URL parameter: broker (lowercase broker identifier)
func (h *GinHandlers) ImportOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		idempotencyKey := c.GetHeader("Idempotency-Key")
		if idempotencyKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required")
			return
		}

		claims, exists := c.Get("claims")
		if !exists {
			response.Unauthorized(c, "Missing authentication claims")
			return
		}
		clientID := auth.GetClientID(claims)
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		var req ImportRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		batch, err := h.service.ImportOrders(clientID, c.Param("broker"), req, idempotencyKey)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, batch)
	}
}

// GetOrdersHandler handles GET requests for stored canonical orders
// Optional query parameter: symbol
func (h *GinHandlers) GetOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, exists := c.Get("claims")
		if !exists {
			response.Unauthorized(c, "Missing authentication claims")
			return
		}
		clientID := auth.GetClientID(claims)
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		orders, err := h.service.GetClientOrders(clientID, c.Query("symbol"))
		response.Handle(c, orders, err)
	}
}
