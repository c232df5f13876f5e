package providers

import (
	"github.com/samber/do/v2"

	"github.com/zarko379/iMangarr-ng/internal/config"
	"github.com/zarko379/iMangarr-ng/internal/logger"
	"github.com/zarko379/iMangarr-ng/internal/metadata/anilist"
)

// AniListClientHandle wraps the AniList client with shutdown capability.
type AniListClientHandle struct {
	*anilist.Client
}

// Shutdown implements do.Shutdownable.
func (h *AniListClientHandle) Shutdown() error {
	h.Client.Close()
	return nil
}

// ProvideAniListClient provides the catalog client.
func ProvideAniListClient(i do.Injector) (*AniListClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := anilist.New(anilist.Options{
		Endpoint:          cfg.Catalog.URL,
		Timeout:           cfg.Catalog.Timeout,
		RequestsPerMinute: cfg.Catalog.RequestsPerMinute,
	}, log.Logger)

	log.Info("AniList client initialized",
		"endpoint", cfg.Catalog.URL,
		"timeout", cfg.Catalog.Timeout,
	)

	return &AniListClientHandle{Client: client}, nil
}
