package store

import (
	"context"
	"slices"
	"sync"

	"github.com/zarko379/iMangarr-ng/internal/domain"
)

// Memory keeps settings and the library in process memory.
type Memory struct {
	mu       sync.RWMutex
	settings *domain.Settings
	entries  []domain.Entry
}

var (
	_ Backend       = (*Memory)(nil)
	_ EntryAppender = (*Memory)(nil)
)

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{}
}

// Name identifies the backend.
func (m *Memory) Name() string { return "memory" }

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// LoadSettings returns a copy of the settings or ErrSettingsNotFound.
func (m *Memory) LoadSettings(_ context.Context) (*domain.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.settings == nil {
		return nil, ErrSettingsNotFound
	}
	s := *m.settings
	return &s, nil
}

// SaveSettings overwrites the settings.
func (m *Memory) SaveSettings(_ context.Context, settings *domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := *settings
	m.settings = &s
	return nil
}

// LoadLibrary returns a copy of the entries.
func (m *Memory) LoadLibrary(_ context.Context) ([]domain.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.entries == nil {
		return []domain.Entry{}, nil
	}
	return slices.Clone(m.entries), nil
}

// SaveLibrary replaces the entries.
func (m *Memory) SaveLibrary(_ context.Context, entries []domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = slices.Clone(entries)
	return nil
}

// AppendEntry adds entry at the end.
func (m *Memory) AppendEntry(_ context.Context, entry domain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if domain.ContainsEntry(m.entries, entry.ID) {
		return ErrEntryExists
	}
	m.entries = append(m.entries, entry)
	return nil
}
