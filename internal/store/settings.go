package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/zarko379/iMangarr-ng/internal/domain"
)

// LoadSettings returns the saved settings or ErrSettingsNotFound.
func (s *Store) LoadSettings(_ context.Context) (*domain.Settings, error) {
	var settings domain.Settings

	if err := s.get(settingsKey, &settings); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &settings, nil
}

// SaveSettings overwrites the settings record.
func (s *Store) SaveSettings(_ context.Context, settings *domain.Settings) error {
	if err := s.set(settingsKey, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Settings saved", "root_path", settings.RootPath, "indexer", settings.Indexer)
	}
	return nil
}
