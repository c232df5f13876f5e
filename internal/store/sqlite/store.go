// Package sqlite is a pure-Go SQLite backend for settings and the library.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zarko379/iMangarr-ng/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// pragmas are applied by the driver to every new connection.
var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
	"foreign_keys(ON)",
}

// Store keeps settings and entries in one database file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var (
	_ store.Backend       = (*Store)(nil)
	_ store.EntryAppender = (*Store)(nil)
)

// dsn turns a file path into a modernc DSN carrying the pragmas.
func dsn(path string) string {
	q := url.Values{"_pragma": pragmas}
	return "file:" + path + "?" + q.Encode()
}

// Open creates or opens the database at path and applies the schema. The
// schema is idempotent, so opening an existing file is safe.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("SQLite database opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Name() string { return "sqlite" }

func (s *Store) Close() error { return s.db.Close() }

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
