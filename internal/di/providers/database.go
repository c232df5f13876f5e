package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/zarko379/iMangarr-ng/internal/config"
	"github.com/zarko379/iMangarr-ng/internal/logger"
	"github.com/zarko379/iMangarr-ng/internal/sse"
	"github.com/zarko379/iMangarr-ng/internal/store"
	"github.com/zarko379/iMangarr-ng/internal/store/backend"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the configured storage backend with shutdown capability.
type StoreHandle struct {
	store.Backend
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the backend selected by Storage.Backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	b, err := backend.Open(cfg.Storage.Backend, cfg.Storage.DataPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Storage initialized", "backend", b.Name(), "path", cfg.Storage.DataPath)

	return &StoreHandle{Backend: b}, nil
}
