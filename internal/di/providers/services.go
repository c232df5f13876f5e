package providers

import (
	"github.com/samber/do/v2"

	"github.com/zarko379/iMangarr-ng/internal/config"
	"github.com/zarko379/iMangarr-ng/internal/logger"
	"github.com/zarko379/iMangarr-ng/internal/service"
)

// ProvideLibraryService provides the search and watch list service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalog := do.MustInvoke[*AniListClientHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	covers := do.MustInvoke[*CoverCache](i)

	svc := service.NewLibraryService(catalog.Client, storeHandle.Backend, service.LibraryOptions{
		MinQueryLength: cfg.Search.MinQueryLength,
	}, log.Logger)

	svc.SetEventEmitter(sseHandle.Manager)
	svc.SetIndexer(indexHandle.LibraryIndex)
	if covers.Fetcher != nil {
		svc.SetCoverFetcher(covers.Fetcher)
	}

	return svc, nil
}

// ProvideSettingsService provides the settings service.
func ProvideSettingsService(i do.Injector) (*service.SettingsService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	svc := service.NewSettingsService(storeHandle.Backend, log.Logger)
	svc.SetEventEmitter(sseHandle.Manager)

	return svc, nil
}
