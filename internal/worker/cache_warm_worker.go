package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// CacheWarmer is satisfied by *service.StorefrontService.
type CacheWarmer interface {
	WarmCache(ctx context.Context) (int, error)
}

// CacheWarmWorker periodically reloads every active product into the storefront cache.
type CacheWarmWorker struct {
	warmer   CacheWarmer
	interval time.Duration
}

// NewCacheWarmWorker constructs a CacheWarmWorker.
func NewCacheWarmWorker(warmer CacheWarmer, interval time.Duration) *CacheWarmWorker {
	return &CacheWarmWorker{
		warmer:   warmer,
		interval: interval,
	}
}

// Start warms the cache immediately, then on every tick until ctx is cancelled.
// A non-positive interval disables the worker.
func (w *CacheWarmWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		log.Info().Msg("Cache warm worker disabled")
		return
	}
	log.Info().Dur("interval", w.interval).Msg("Starting cache warm worker")

	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Cache warm worker stopped")
			return
		}
	}
}

func (w *CacheWarmWorker) run(ctx context.Context) {
	start := time.Now()
	n, err := w.warmer.WarmCache(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Int("warmed", n).Msg("Failed to warm product cache")
		return
	}

	log.Debug().Int("products", n).Dur("duration", time.Since(start)).Msg("Product cache warmed")
}
