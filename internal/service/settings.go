package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	domainerrors "github.com/zarko379/iMangarr-ng/internal/errors"
	"github.com/zarko379/iMangarr-ng/internal/sse"
	"github.com/zarko379/iMangarr-ng/internal/store"
	"github.com/zarko379/iMangarr-ng/internal/validation"
)

// SettingsService manages the singleton settings record.
type SettingsService struct {
	store     store.SettingsStore
	logger    *slog.Logger
	validator *validation.Validator
	events    EventEmitter

	mu sync.Mutex
}

// NewSettingsService creates a new settings service.
func NewSettingsService(settings store.SettingsStore, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		store:     settings,
		logger:    logger,
		validator: validation.New(),
		events:    noopEmitter{},
	}
}

// SetEventEmitter sets where settings.updated events go.
func (s *SettingsService) SetEventEmitter(e EventEmitter) {
	if e == nil {
		e = noopEmitter{}
	}
	s.events = e
}

// Get returns the settings, or a NOT_CONFIGURED error before setup.
func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.store.LoadSettings(ctx)
	if errors.Is(err, store.ErrSettingsNotFound) {
		return nil, domainerrors.NotConfigured("iMangarr has not been set up yet")
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// IsConfigured reports whether setup has run.
func (s *SettingsService) IsConfigured(ctx context.Context) (bool, error) {
	_, err := s.Get(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domainerrors.ErrNotConfigured):
		return false, nil
	default:
		return false, err
	}
}

// SetupRequest is the setup form.
type SetupRequest struct {
	RootPath string `json:"root_path" form:"root_path" validate:"required,max=4096"`
}

// Setup saves the settings, replacing any previous record.
func (s *SettingsService) Setup(ctx context.Context, req SetupRequest) (*domain.Settings, error) {
	req.RootPath = strings.TrimSpace(req.RootPath)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	settings := domain.NewSettings(req.RootPath)

	s.mu.Lock()
	err := s.store.SaveSettings(context.WithoutCancel(ctx), settings)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("failed to save settings", slog.String("error", err.Error()))
		return nil, fmt.Errorf("save settings: %w", err)
	}

	s.logger.Info("settings saved", slog.String("root_path", settings.RootPath))
	s.events.Emit(sse.NewSettingsUpdatedEvent(*settings))
	return settings, nil
}

// Reload announces settings that changed outside the application.
func (s *SettingsService) Reload(ctx context.Context) error {
	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}
	s.events.Emit(sse.NewSettingsUpdatedEvent(*settings))
	return nil
}
