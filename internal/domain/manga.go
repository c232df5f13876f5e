package domain

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidMangaID is returned when a catalog identifier cannot be parsed.
var ErrInvalidMangaID = errors.New("invalid manga id")

// MangaID is the catalog's numeric identifier for a manga.
//
// The catalog sends ids as JSON numbers while forms and the library document carry
// them as strings. Both are parsed once at the boundary so comparisons are always
// between integers.
type MangaID int64

// ParseMangaID parses a decimal id. Zero and negative values are rejected.
func ParseMangaID(s string) (MangaID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidMangaID
	}
	return MangaID(n), nil
}

func (id MangaID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// MarshalJSON writes the id as a JSON string.
func (id MangaID) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, id.String()), nil
}

// UnmarshalJSON accepts both "30002" and 30002.
func (id *MangaID) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	parsed, err := ParseMangaID(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Title holds the catalog's title variants.
type Title struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

// Resolve picks romaji, then english, then native. An all-empty title resolves
// to the empty string.
func (t Title) Resolve() string {
	for _, candidate := range []string{t.Romaji, t.English, t.Native} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// MediaStatus is the publication status reported by the catalog.
type MediaStatus string

const (
	MediaStatusReleasing      MediaStatus = "RELEASING"
	MediaStatusFinished       MediaStatus = "FINISHED"
	MediaStatusNotYetReleased MediaStatus = "NOT_YET_RELEASED"
	MediaStatusCancelled      MediaStatus = "CANCELLED"
	MediaStatusHiatus         MediaStatus = "HIATUS"
	MediaStatusUnknown        MediaStatus = "UNKNOWN"
)

// ParseMediaStatus maps a catalog value onto a known status. Anything
// unrecognised, including the empty string, becomes MediaStatusUnknown.
func ParseMediaStatus(s string) MediaStatus {
	switch st := MediaStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case MediaStatusReleasing, MediaStatusFinished, MediaStatusNotYetReleased,
		MediaStatusCancelled, MediaStatusHiatus:
		return st
	default:
		return MediaStatusUnknown
	}
}

// Label is the human-readable status shown on result cards.
func (s MediaStatus) Label() string {
	switch s {
	case MediaStatusReleasing:
		return "Releasing"
	case MediaStatusFinished:
		return "Finished"
	case MediaStatusNotYetReleased:
		return "Not yet released"
	case MediaStatusCancelled:
		return "Cancelled"
	case MediaStatusHiatus:
		return "Hiatus"
	default:
		return "Unknown"
	}
}

// Media is one catalog search result.
type Media struct {
	ID          MangaID     `json:"id"`
	Title       Title       `json:"title"`
	CoverURL    string      `json:"cover_url"`
	Status      MediaStatus `json:"status"`
	Chapters    *int        `json:"chapters"`
	Volumes     *int        `json:"volumes"`
	Description string      `json:"description,omitempty"`
}

// CatalogImageHost is the domain the catalog serves cover images from.
const CatalogImageHost = "anilist.co"

// IsCatalogCoverURL reports whether raw is an https URL on the catalog's image
// hosts. Covers are downloaded server-side, so nothing else is accepted.
func IsCatalogCoverURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.User != nil {
		return false
	}
	if port := u.Port(); port != "" && port != "443" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == CatalogImageHost || strings.HasSuffix(host, "."+CatalogImageHost)
}

// UnknownCount is rendered for chapter or volume counts the catalog does not know.
const UnknownCount = "?"

// CountLabel renders a possibly-missing count. Missing is never shown as zero.
func CountLabel(n *int) string {
	if n == nil {
		return UnknownCount
	}
	return strconv.Itoa(*n)
}
