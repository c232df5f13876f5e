package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
)

// Routes maps a file name inside the watched directory to the reaction to a
// change of that file.
type Routes map[string]func(ctx context.Context, event Event) error

// Dispatcher runs the route for every settled event.
type Dispatcher struct {
	watcher *Watcher
	routes  Routes
	skip    func(Event) bool
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher over w.
func NewDispatcher(w *Watcher, routes Routes, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		watcher: w,
		routes:  routes,
		skip:    func(Event) bool { return false },
		logger:  logger,
	}
}

// SkipWhen drops events for which fn returns true, e.g. the application's own
// writes.
func (d *Dispatcher) SkipWhen(fn func(Event) bool) {
	if fn != nil {
		d.skip = fn
	}
}

// Run dispatches until ctx is done or the watcher stops.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-d.watcher.Events():
			if !ok {
				return
			}
			d.dispatch(ctx, event)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, event Event) {
	name := filepath.Base(event.Path)
	route, ok := d.routes[name]
	if !ok || d.skip(event) {
		return
	}

	d.logger.Info("data file changed on disk",
		slog.String("file", name),
		slog.String("change", event.Type.String()))

	if err := route(ctx, event); err != nil {
		d.logger.Error("failed to apply data file change",
			slog.String("file", name),
			slog.String("error", err.Error()))
	}
}
