package domain

import (
	"encoding/json/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	e := NewEntry(30002, "Berserk", "https://img/berserk.jpg", now)

	assert.Equal(t, MangaID(30002), e.ID)
	assert.Equal(t, "Berserk", e.Title)
	assert.Equal(t, "https://img/berserk.jpg", e.Cover)
	assert.True(t, now.Equal(e.AddedAt.Time))
	assert.Zero(t, e.ChaptersDownloaded)
	assert.Zero(t, e.VolumesDownloaded)
	assert.Equal(t, EntryStatusMonitoring, e.Status)
}

func TestEntry_JSONLayout(t *testing.T) {
	e := NewEntry(30002, "Berserk", "https://img/berserk.jpg", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))

	data, err := json.Marshal(e)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"id": "30002",
		"title": "Berserk",
		"cover": "https://img/berserk.jpg",
		"added_at": "2025-06-01T10:00:00Z",
		"chapters_downloaded": 0,
		"volumes_downloaded": 0,
		"status": "monitoring"
	}`, string(data))
}

func TestEntry_ReadsNaiveTimestamp(t *testing.T) {
	doc := `{"id":"7","title":"Vagabond","cover":"","added_at":"2024-11-02T18:04:05.123456",
		"chapters_downloaded":0,"volumes_downloaded":0,"status":"monitoring"}`

	var e Entry
	require.NoError(t, json.Unmarshal([]byte(doc), &e))

	assert.Equal(t, MangaID(7), e.ID)
	assert.Equal(t, 2024, e.AddedAt.Year())
	assert.Equal(t, 123456000, e.AddedAt.Nanosecond())
}

func TestParseTimestamp_Invalid(t *testing.T) {
	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestContainsEntry(t *testing.T) {
	entries := []Entry{{ID: 1}, {ID: 2}}

	assert.True(t, ContainsEntry(entries, 2))
	assert.False(t, ContainsEntry(entries, 3))
	assert.False(t, ContainsEntry(nil, 1))

	ids := EntryIDs(entries)
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, MangaID(1))
}

func TestNewSettings(t *testing.T) {
	s := NewSettings("/srv/manga")

	assert.Equal(t, "/srv/manga", s.RootPath)
	assert.Equal(t, "nyaa", s.Indexer)
}
