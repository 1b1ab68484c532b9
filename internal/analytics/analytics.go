package analytics

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tradebook/journal-api/internal/auth"
	"github.com/tradebook/journal-api/internal/journal"
	"github.com/tradebook/journal-api/internal/matching"
	"github.com/tradebook/journal-api/internal/types"
	"github.com/tradebook/journal-api/pkg/response"
)

// Service orchestrates the analytics pipeline: stored orders are matched
// into trades, enriched with journal metadata, aggregated and formatted.
// Each call is independent and stateless, so it is safe under concurrent
// requests without locking.
type Service struct {
	db *Database
}

// NewService creates a new analytics service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// Report is the analytics endpoint payload: formatted chart records per
// group plus portfolio-level totals.
type Report struct {
	GroupBy   string          `json:"group_by"`
	Policy    string          `json:"policy"`
	Groups    []ChartRecord   `json:"groups"`
	Portfolio StrategyMetrics `json:"portfolio"`
}

// Trades runs the matching pipeline for one client and returns enriched
// round-trip trades. symbol narrows the order stream when non-empty.
func (s *Service) Trades(clientID string, policy matching.Policy, symbol string) ([]types.CompletedTrade, error) {
	logger := log.With().
		Str("client_id", clientID).
		Str("policy", string(policy)).
		Str("service", "analytics").
		Logger()

	orders, err := s.db.GetClientOrders(clientID, symbol)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch orders")
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}

	entries, err := s.db.GetClientJournalEntries(clientID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch journal entries")
		return nil, fmt.Errorf("failed to fetch journal entries: %w", err)
	}

	entryMap := make(map[string]types.JournalEntry, len(entries))
	for _, entry := range entries {
		entryMap[entry.EntryID] = entry
	}

	matcher := matching.NewMatcher(policy)
	trades := journal.Enrich(matcher.MatchAll(orders), entryMap)

	logger.Debug().
		Int("orders", len(orders)).
		Int("journal_entries", len(entries)).
		Int("trades", len(trades)).
		Msg("matched and enriched trades")

	return trades, nil
}

// Aggregate produces the full analytics report for one client and grouping
// dimension.
func (s *Service) Aggregate(clientID string, groupBy GroupKey, policy matching.Policy) (*Report, error) {
	trades, err := s.Trades(clientID, policy, "")
	if err != nil {
		return nil, err
	}

	groups, err := Aggregate(trades, groupBy)
	if err != nil {
		return nil, err
	}

	return &Report{
		GroupBy:   string(groupBy),
		Policy:    string(policy),
		Groups:    Format(groups),
		Portfolio: Compute(trades),
	}, nil
}

// GinHandlers contains HTTP handlers for trade and analytics endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for analytics endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// GetTradesHandler handles GET requests for the matched trade listing
// Query parameters: policy (weighted|fifo, default weighted), symbol
func (h *GinHandlers) GetTradesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := clientIDFromClaims(c)
		if clientID == "" {
			return
		}

		policy, err := matching.ParsePolicy(c.Query("policy"))
		if err != nil {
			response.ValidationFailed(c, err.Error())
			return
		}

		trades, err := h.service.Trades(clientID, policy, c.Query("symbol"))
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, trades)
	}
}

// GetAnalyticsHandler handles GET requests for grouped performance metrics
// Query parameters: group_by (strategy|mistake|day|emotion|slot), policy
func (h *GinHandlers) GetAnalyticsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := clientIDFromClaims(c)
		if clientID == "" {
			return
		}

		groupBy, err := ParseGroupKey(c.DefaultQuery("group_by", string(GroupStrategy)))
		if err != nil {
			response.ValidationFailed(c, err.Error())
			return
		}

		policy, err := matching.ParsePolicy(c.Query("policy"))
		if err != nil {
			response.ValidationFailed(c, err.Error())
			return
		}

		report, err := h.service.Aggregate(clientID, groupBy, policy)
		if err != nil {
			if errors.Is(err, ErrInvalidGroupKey) {
				response.ValidationFailed(c, err.Error())
				return
			}
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, report)
	}
}

// clientIDFromClaims resolves the authenticated client, writing the error
// response itself when the claims are unusable.
func clientIDFromClaims(c *gin.Context) string {
	claims, exists := c.Get("claims")
	if !exists {
		response.Unauthorized(c, "Missing authentication claims")
		return ""
	}

	clientID := auth.GetClientID(claims)
	if clientID == "" {
		response.Unauthorized(c, "Invalid client ID in token")
	}
	return clientID
}
