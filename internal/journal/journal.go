package journal

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tradebook/journal-api/internal/auth"
	"github.com/tradebook/journal-api/internal/types"
	"github.com/tradebook/journal-api/pkg/response"
	"gorm.io/gorm"
)

// Service handles journal entry management
type Service struct {
	db *Database
}

// NewService creates a new journal service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// CreateEntry stores a new journal entry for a client. Variant-shaped
// strategy/feelings fields are kept in their raw form; resolution to
// canonical values happens at enrichment time.
func (s *Service) CreateEntry(entry *types.JournalEntry) error {
	entry.EntryID = "JRN_" + uuid.New().String()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()
	return s.db.CreateEntry(entry)
}

// GetEntry retrieves a journal entry scoped to the owning client
func (s *Service) GetEntry(entryID, clientID string) (*types.JournalEntry, error) {
	return s.db.GetEntryByEntryIDAndClientID(entryID, clientID)
}

// EntryMap loads all of a client's journal entries keyed by entry id,
// ready for the enricher's lookup.
func (s *Service) EntryMap(clientID string) (map[string]types.JournalEntry, error) {
	entries, err := s.db.GetClientEntries(clientID)
	if err != nil {
		return nil, err
	}

	m := make(map[string]types.JournalEntry, len(entries))
	for _, entry := range entries {
		m[entry.EntryID] = entry
	}
	return m, nil
}

// GinHandlers contains HTTP handlers for journal endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for journal endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// CreateEntryHandler handles POST requests to create journal entries
// Requires a valid JWT token; the entry is owned by the token's client
func (h *GinHandlers) CreateEntryHandler() gin.HandlerFunc {
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

		var entry types.JournalEntry
		if err := c.ShouldBindJSON(&entry); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		entry.ClientID = clientID

		if err := h.service.CreateEntry(&entry); err != nil {
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, entry)
	}
}

// GetEntryHandler handles GET requests for a single journal entry
// URL parameter: entry_id
func (h *GinHandlers) GetEntryHandler() gin.HandlerFunc {
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

		entryID := c.Param("entry_id")
		if entryID == "" {
			response.BadRequest(c, "Entry ID is required")
			return
		}

		entry, err := h.service.GetEntry(entryID, clientID)
		if err != nil || entry == nil {
			response.NotFound(c, "Journal entry not found")
			return
		}

		response.Success(c, entry)
	}
}
