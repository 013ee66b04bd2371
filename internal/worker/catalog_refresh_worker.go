package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Prewarmer reloads every active catalog exam into the cache.
type Prewarmer interface {
	Prewarm(ctx context.Context) error
}

// CatalogRefreshWorker rewarms the catalog cache on a fixed interval so
// entries are replaced before their TTL lapses.
type CatalogRefreshWorker struct {
	catalog  Prewarmer
	interval time.Duration
	log      zerolog.Logger
}

// NewCatalogRefreshWorker creates a new CatalogRefreshWorker.
func NewCatalogRefreshWorker(catalog Prewarmer, interval time.Duration, log zerolog.Logger) *CatalogRefreshWorker {
	return &CatalogRefreshWorker{
		catalog:  catalog,
		interval: interval,
		log:      log.With().Str("component", "catalog_refresh_worker").Logger(),
	}
}

// Start runs the refresh loop until ctx is cancelled. Call in a goroutine.
func (w *CatalogRefreshWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *CatalogRefreshWorker) refresh(ctx context.Context) {
	start := time.Now()
	if err := w.catalog.Prewarm(ctx); err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Catalog refresh failed")
		}
		return
	}
	w.log.Debug().Dur("took", time.Since(start)).Msg("Catalog refreshed")
}
