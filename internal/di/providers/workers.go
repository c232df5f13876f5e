package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/zarko379/iMangarr-ng/internal/config"
	"github.com/zarko379/iMangarr-ng/internal/logger"
	"github.com/zarko379/iMangarr-ng/internal/service"
	"github.com/zarko379/iMangarr-ng/internal/store/jsonfile"
	"github.com/zarko379/iMangarr-ng/internal/watcher"
)

// FileWatcherHandle wraps the data file watcher with shutdown capability.
// Watcher is nil when watching does not apply to the configured backend.
type FileWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *FileWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Watcher.Stop()
}

// ProvideFileWatcher watches config.json and library.json so hand edits show
// up without a restart. Only the json backend keeps its data in plain files.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	library := do.MustInvoke[*service.LibraryService](i)
	settings := do.MustInvoke[*service.SettingsService](i)

	files, ok := storeHandle.Backend.(*jsonfile.Store)
	if !ok || !cfg.Storage.WatchFiles {
		log.Info("Data file watcher disabled", "backend", storeHandle.Name())
		return &FileWatcherHandle{}, nil
	}

	w, err := watcher.New(log.Logger, watcher.Options{IgnoreHidden: true})
	if err != nil {
		return nil, err
	}
	if err := w.Watch(files.Dir()); err != nil {
		_ = w.Stop()
		return nil, err
	}

	dispatcher := watcher.NewDispatcher(w, watcher.Routes{
		jsonfile.LibraryFile: func(ctx context.Context, _ watcher.Event) error {
			_, err := library.Reload(ctx, "watcher")
			return err
		},
		jsonfile.SettingsFile: func(ctx context.Context, _ watcher.Event) error {
			return settings.Reload(ctx)
		},
	}, log.Logger)
	dispatcher.SkipWhen(func(e watcher.Event) bool {
		return files.IsOwnWrite(e.Path, e.ModTime, e.Size)
	})

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("File watcher error", "error", err)
		}
	}()
	go dispatcher.Run(ctx)

	log.Info("Data file watcher started", "path", files.Dir())

	return &FileWatcherHandle{Watcher: w, cancel: cancel}, nil
}
