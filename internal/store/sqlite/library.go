package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	"github.com/zarko379/iMangarr-ng/internal/store"
)

const insertEntrySQL = `INSERT INTO entries
	(id, title, cover, added_at, chapters_downloaded, volumes_downloaded, status)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// LoadLibrary returns the entries ordered by insertion position.
func (s *Store) LoadLibrary(ctx context.Context) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, cover, added_at,
		chapters_downloaded, volumes_downloaded, status
		FROM entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.Entry{}
	for rows.Next() {
		var (
			e       domain.Entry
			rawID   string
			addedAt string
		)
		if err := rows.Scan(&rawID, &e.Title, &e.Cover, &addedAt,
			&e.ChaptersDownloaded, &e.VolumesDownloaded, &e.Status); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		if e.ID, err = domain.ParseMangaID(rawID); err != nil {
			return nil, &store.CorruptError{Location: "entries.id=" + rawID, Err: err}
		}
		if e.AddedAt, err = domain.ParseTimestamp(addedAt); err != nil {
			return nil, &store.CorruptError{Location: "entries.added_at=" + addedAt, Err: err}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// SaveLibrary replaces all entries in one transaction.
func (s *Store) SaveLibrary(ctx context.Context, entries []domain.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	for _, e := range entries {
		if err := insertEntry(ctx, tx, e); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit library: %w", err)
	}
	s.logger.Debug("library rewritten", "entries", len(entries))
	return nil
}

// AppendEntry inserts one entry. The UNIQUE constraint on id reports duplicates.
func (s *Store) AppendEntry(ctx context.Context, entry domain.Entry) error {
	return insertEntry(ctx, s.db, entry)
}

func insertEntry(ctx context.Context, db execer, e domain.Entry) error {
	_, err := db.ExecContext(ctx, insertEntrySQL,
		e.ID.String(), e.Title, e.Cover, formatTime(e.AddedAt.Time),
		e.ChaptersDownloaded, e.VolumesDownloaded, string(e.Status))
	if isUniqueViolation(err) {
		return store.ErrEntryExists
	}
	if err != nil {
		return fmt.Errorf("insert entry %s: %w", e.ID, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

