package domain

import (
	"strconv"
	"time"
)

// EntryStatus is the tracking state of a library entry.
type EntryStatus string

// EntryStatusMonitoring is the only state an entry is created with.
const EntryStatusMonitoring EntryStatus = "monitoring"

// Entry is one manga on the user's watch list. Entries are created by an add
// and never updated afterwards.
type Entry struct {
	ID                 MangaID     `json:"id"`
	Title              string      `json:"title"`
	Cover              string      `json:"cover"`
	AddedAt            Timestamp   `json:"added_at"`
	ChaptersDownloaded int         `json:"chapters_downloaded"`
	VolumesDownloaded  int         `json:"volumes_downloaded"`
	Status             EntryStatus `json:"status"`
}

// NewEntry builds a freshly added entry.
func NewEntry(id MangaID, title, cover string, now time.Time) Entry {
	return Entry{
		ID:      id,
		Title:   title,
		Cover:   cover,
		AddedAt: Timestamp{Time: now},
		Status:  EntryStatusMonitoring,
	}
}

// ContainsEntry reports whether entries holds id.
func ContainsEntry(entries []Entry, id MangaID) bool {
	for i := range entries {
		if entries[i].ID == id {
			return true
		}
	}
	return false
}

// EntryIDs returns the set of ids in entries.
func EntryIDs(entries []Entry) map[MangaID]struct{} {
	ids := make(map[MangaID]struct{}, len(entries))
	for i := range entries {
		ids[entries[i].ID] = struct{}{}
	}
	return ids
}

// naiveISOLayout is an ISO-8601 timestamp without zone, as older library
// documents store it.
const naiveISOLayout = "2006-01-02T15:04:05.999999"

// Timestamp is a time that serialises as RFC 3339 and also reads zone-less
// ISO-8601 values (interpreted as local time).
type Timestamp struct {
	time.Time
}

// MarshalJSON writes RFC 3339 with nanoseconds.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, t.UTC().Format(time.RFC3339Nano)), nil
}

// UnmarshalJSON reads RFC 3339 or the zone-less layout.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return err
	}
	return t.parse(raw)
}

func (t *Timestamp) parse(raw string) error {
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation(naiveISOLayout, raw, time.Local)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// ParseTimestamp parses a stored added_at value.
func ParseTimestamp(raw string) (Timestamp, error) {
	var t Timestamp
	err := t.parse(raw)
	return t, err
}
