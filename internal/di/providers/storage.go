package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/zarko379/iMangarr-ng/internal/config"
	"github.com/zarko379/iMangarr-ng/internal/logger"
	"github.com/zarko379/iMangarr-ng/internal/media/images"
)

// CoverCache groups the local cover storage and its download workers.
// Both fields are nil when the cache is disabled.
type CoverCache struct {
	Storage *images.Storage
	Fetcher *images.Fetcher
	cancel  context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (c *CoverCache) Shutdown() error {
	// Abort in-flight downloads, then wait for the workers to drain.
	if c.cancel != nil {
		c.cancel()
	}
	if c.Fetcher != nil {
		c.Fetcher.Stop()
	}
	if c.Storage != nil {
		return c.Storage.Close()
	}
	return nil
}

// ProvideCoverCache provides the cover storage and starts the fetch workers.
func ProvideCoverCache(i do.Injector) (*CoverCache, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Covers.Enabled {
		log.Info("Cover cache disabled by configuration")
		return &CoverCache{}, nil
	}

	storage, err := images.NewStorage(cfg.CoversPath())
	if err != nil {
		return nil, fmt.Errorf("cover storage: %w", err)
	}

	processor := images.NewProcessor(cfg.Covers.MaxWidth)
	fetcher := images.NewFetcher(storage, processor, images.FetcherOptions{}, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	fetcher.Start(ctx)

	log.Info("Cover cache initialized", "path", storage.Dir(), "max_width", cfg.Covers.MaxWidth)

	return &CoverCache{Storage: storage, Fetcher: fetcher, cancel: cancel}, nil
}
