// Package di provides dependency injection configuration for the iMangarr server.
package di

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/zarko379/iMangarr-ng/internal/config"
	"github.com/zarko379/iMangarr-ng/internal/di/providers"
	"github.com/zarko379/iMangarr-ng/internal/logger"
	"github.com/zarko379/iMangarr-ng/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()
	Register(injector)
	return injector
}

// Register adds every provider to injector. Tests register into their own
// scope and override ProvideConfig.
func Register(injector do.Injector) {
	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCoverCache)

	// Search and catalog
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideAniListClient)

	// Business services
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideSettingsService)

	// Workers
	do.Provide(injector, providers.ProvideFileWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)
}

// Bootstrap initializes all services and loads the library into the title index.
func Bootstrap(injector do.Injector) error {
	_ = do.MustInvoke[*config.Config](injector)
	log := do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CoverCache](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.AniListClientHandle](injector)

	library := do.MustInvoke[*service.LibraryService](injector)
	settings := do.MustInvoke[*service.SettingsService](injector)

	// An unreadable library is fatal; missing settings only mean setup has not run.
	if _, err := library.Reload(context.Background(), "startup"); err != nil {
		return err
	}
	if configured, err := settings.IsConfigured(context.Background()); err != nil {
		return err
	} else if !configured {
		log.Warn("iMangarr needs setup - open the web UI to choose a root folder")
	}

	// Workers
	if _, err := do.Invoke[*providers.FileWatcherHandle](injector); err != nil {
		return err
	}

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	return nil
}
