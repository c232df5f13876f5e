package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	"github.com/zarko379/iMangarr-ng/internal/store"
)

// LoadSettings returns the singleton settings row.
func (s *Store) LoadSettings(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	err := s.db.QueryRowContext(ctx,
		`SELECT root_path, indexer FROM settings WHERE id = 1`).
		Scan(&settings.RootPath, &settings.Indexer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings replaces the singleton settings row.
func (s *Store) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO settings (id, root_path, indexer, updated_at) VALUES (1, ?, ?, ?)`,
		settings.RootPath, settings.Indexer, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
