// Package jsonfile stores settings and the library as two JSON documents in a
// data directory. Every mutation rewrites the affected document atomically.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	"github.com/zarko379/iMangarr-ng/internal/store"
)

// Document names inside the data directory.
const (
	SettingsFile = "config.json"
	LibraryFile  = "library.json"
)

// Store is the JSON document backend.
type Store struct {
	dir    string
	logger *slog.Logger
	mu     sync.RWMutex

	// written remembers what this process last wrote to each document.
	written map[string]stamp
}

type stamp struct {
	modTime time.Time
	size    int64
}

var _ store.Backend = (*Store)(nil)

// Open prepares dir for use, creating it if needed.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("data directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir, logger: logger, written: make(map[string]stamp)}, nil
}

// Name identifies the backend.
func (s *Store) Name() string { return "json" }

// Close is a no-op; files are closed after every operation.
func (s *Store) Close() error { return nil }

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// SettingsPath is the full path of the settings document.
func (s *Store) SettingsPath() string { return filepath.Join(s.dir, SettingsFile) }

// LibraryPath is the full path of the library document.
func (s *Store) LibraryPath() string { return filepath.Join(s.dir, LibraryFile) }

// LoadSettings reads config.json. A missing file means setup has not run.
func (s *Store) LoadSettings(_ context.Context) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var settings domain.Settings
	found, err := s.read(s.SettingsPath(), &settings)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, store.ErrSettingsNotFound
	}
	return &settings, nil
}

// SaveSettings overwrites config.json.
func (s *Store) SaveSettings(_ context.Context, settings *domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(s.SettingsPath(), settings)
}

// LoadLibrary reads library.json. A missing or empty file is an empty library.
func (s *Store) LoadLibrary(_ context.Context) ([]domain.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []domain.Entry
	if _, err := s.read(s.LibraryPath(), &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	return entries, nil
}

// SaveLibrary rewrites library.json with the whole collection.
func (s *Store) SaveLibrary(_ context.Context, entries []domain.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entries == nil {
		entries = []domain.Entry{}
	}
	return s.write(s.LibraryPath(), entries)
}

func (s *Store) read(path string, dest any) (bool, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- fixed document name under the data directory
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, &store.CorruptError{Location: path, Err: err}
	}
	return true, nil
}

// documentMode matches what a plain file write would give the documents, so
// other tools sharing the data directory can still read them.
const documentMode fs.FileMode = 0o644

// write encodes value into a temp file next to path, syncs it and renames it
// over path, so readers never observe a partial document.
func (s *Store) write(path string, value any) error {
	tmp, err := os.CreateTemp(s.dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := json.MarshalWrite(tmp, value, jsontext.WithIndent("  ")); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(documentMode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}

	if info, err := os.Stat(path); err == nil {
		s.written[path] = stamp{modTime: info.ModTime(), size: info.Size()}
	}

	if s.logger != nil {
		s.logger.Debug("document written", "path", path)
	}
	return nil
}

// IsOwnWrite reports whether the document at path is exactly what this store
// last wrote there. The data file watcher uses it to skip its own saves.
func (s *Store) IsOwnWrite(path string, modTime time.Time, size int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.written[filepath.Clean(path)]
	return ok && st.size == size && st.modTime.Equal(modTime)
}
