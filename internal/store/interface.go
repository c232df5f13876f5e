// Package store defines persistence for settings and the manga library, and
// provides the Badger-backed implementation.
package store

import (
	"context"

	"github.com/zarko379/iMangarr-ng/internal/domain"
)

// SettingsStore persists the singleton settings record.
type SettingsStore interface {
	// LoadSettings returns ErrSettingsNotFound when setup has not run yet.
	LoadSettings(ctx context.Context) (*domain.Settings, error)
	// SaveSettings overwrites the whole record.
	SaveSettings(ctx context.Context, settings *domain.Settings) error
}

// LibraryStore persists the ordered library.
type LibraryStore interface {
	// LoadLibrary returns the entries in insertion order. A library that was
	// never written loads as empty.
	LoadLibrary(ctx context.Context) ([]domain.Entry, error)
	// SaveLibrary replaces the whole collection.
	SaveLibrary(ctx context.Context, entries []domain.Entry) error
}

// EntryAppender is implemented by keyed backends that can add one entry
// without rewriting the collection.
type EntryAppender interface {
	// AppendEntry adds entry at the end. Returns ErrEntryExists if the id is present.
	AppendEntry(ctx context.Context, entry domain.Entry) error
}

// Backend is a complete storage backend.
type Backend interface {
	SettingsStore
	LibraryStore
	Name() string
	Close() error
}
