package sse

import (
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	domainerrors "github.com/zarko379/iMangarr-ng/internal/errors"
	"github.com/zarko379/iMangarr-ng/internal/http/response"
)

const writeDeadline = 60 * time.Second

// Handler streams events at GET /api/v1/events.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		logger:  logger,
	}
}

// ServeHTTP handles the SSE connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)

	if err := rc.Flush(); err != nil {
		h.logger.Error("failed to flush headers", slog.String("error", err.Error()))
		response.Error(w, http.StatusInternalServerError, domainerrors.CodeInternal, "streaming not supported", h.logger)
		return
	}

	// Register before replaying so nothing emitted in between is missed.
	client, err := h.manager.Connect()
	if err != nil {
		response.HandleError(w, fmt.Errorf("register SSE client: %w", err), h.logger)
		return
	}
	defer h.manager.Disconnect(client.ID)

	clientLogger := h.logger.With(slog.String("client_id", client.ID))

	if err := h.write(w, rc, "", "connected", map[string]string{
		"client_id": client.ID,
	}); err != nil {
		clientLogger.Warn("failed to send initial connection message", slog.String("error", err.Error()))
		return
	}

	replayed := make(map[string]struct{})
	if last := r.Header.Get("Last-Event-ID"); last != "" {
		for _, event := range h.manager.Since(last) {
			if err := h.sendEvent(w, rc, event); err != nil {
				return
			}
			replayed[event.ID] = struct{}{}
		}
	}

	ctx := r.Context()
	for {
		select {
		case event, ok := <-client.EventChan:
			if !ok {
				return
			}
			if _, dup := replayed[event.ID]; dup {
				continue
			}
			if err := h.sendEvent(w, rc, event); err != nil {
				clientLogger.Info("client disconnected during send")
				return
			}

		case <-client.Done:
			clientLogger.Info("client closed by manager")
			return

		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) sendEvent(w http.ResponseWriter, rc *http.ResponseController, event Event) error {
	return h.write(w, rc, event.ID, string(event.Type), event)
}

// write emits one SSE frame:
//
//	id: <id>
//	event: <type>
//	data: <json>
func (h *Handler) write(w http.ResponseWriter, rc *http.ResponseController, eventID, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if eventID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", eventID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, jsonData); err != nil {
		return err
	}

	if err := rc.Flush(); err != nil {
		return err
	}

	// Not every ResponseWriter supports deadlines.
	if err := rc.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}

	return nil
}
