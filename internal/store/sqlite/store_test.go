package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	"github.com/zarko379/iMangarr-ng/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	for _, table := range []string{"settings", "entries"} {
		var name string
		err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LoadSettings(ctx)
	require.ErrorIs(t, err, store.ErrSettingsNotFound)

	require.NoError(t, s.SaveSettings(ctx, domain.NewSettings("/a")))
	require.NoError(t, s.SaveSettings(ctx, domain.NewSettings("/b")))

	got, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, &domain.Settings{RootPath: "/b", Indexer: "nyaa"}, got)

	var rows int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM settings`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestLibrary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	added := time.Date(2025, 4, 1, 8, 30, 0, 123, time.UTC)

	entries, err := s.LoadLibrary(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, s.SaveLibrary(ctx, []domain.Entry{
		domain.NewEntry(9, "Oyasumi Punpun", "c9", added),
		domain.NewEntry(4, "Yotsuba&!", "c4", added),
	}))
	require.NoError(t, s.AppendEntry(ctx, domain.NewEntry(1, "Mushishi", "c1", added)))
	require.ErrorIs(t, s.AppendEntry(ctx, domain.NewEntry(4, "dup", "", added)), store.ErrEntryExists)

	got, err := s.LoadLibrary(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []domain.MangaID{9, 4, 1}, []domain.MangaID{got[0].ID, got[1].ID, got[2].ID})
	assert.True(t, added.Equal(got[2].AddedAt.Time))
	assert.Equal(t, domain.EntryStatusMonitoring, got[2].Status)

	require.NoError(t, s.SaveLibrary(ctx, []domain.Entry{got[2]}))
	got, err = s.LoadLibrary(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Mushishi", got[0].Title)
}
