package imports

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Processor periodically purges expired idempotency records so repeated
// import keys stay cheap to look up.
type Processor struct {
	db           *Database
	processDelay time.Duration
}

func NewProcessor(db *Database) *Processor {
	return &Processor{
		db:           db,
		processDelay: 15 * time.Minute,
	}
}

// Start begins the cleanup loop, exiting when the context is cancelled.
func (p *Processor) Start(ctx context.Context) {
	logger := log.With().Str("component", "import_processor").Logger()
	logger.Info().Msg("starting import maintenance processor")

	ticker := time.NewTicker(p.processDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down import maintenance processor")
			return
		case <-ticker.C:
			purged, err := p.db.DeleteExpiredIdempotencyRecords()
			if err != nil {
				logger.Error().Err(err).Msg("failed to purge expired idempotency records")
				continue
			}
			if purged > 0 {
				logger.Info().Int64("purged", purged).Msg("purged expired idempotency records")
			}
		}
	}
}
