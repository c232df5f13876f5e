package providers

import (
	"github.com/samber/do/v2"

	"github.com/zarko379/iMangarr-ng/internal/logger"
	"github.com/zarko379/iMangarr-ng/internal/search"
)

// SearchIndexHandle wraps the library title index with shutdown capability.
type SearchIndexHandle struct {
	*search.LibraryIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the in-memory Bleve index over library titles.
// It starts empty and is filled by the startup reload.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewLibraryIndex(log.Logger)
	if err != nil {
		return nil, err
	}

	return &SearchIndexHandle{LibraryIndex: index}, nil
}
