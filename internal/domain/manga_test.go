package domain

import (
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMangaID(t *testing.T) {
	tests := []struct {
		input   string
		want    MangaID
		wantErr bool
	}{
		{input: "30002", want: 30002},
		{input: " 42 ", want: 42},
		{input: "0", wantErr: true},
		{input: "-3", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "", wantErr: true},
		{input: "12.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMangaID(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMangaID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMangaID_JSON(t *testing.T) {
	data, err := json.Marshal(MangaID(30002))
	require.NoError(t, err)
	assert.JSONEq(t, `"30002"`, string(data))

	var fromString, fromNumber MangaID
	require.NoError(t, json.Unmarshal([]byte(`"30002"`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`30002`), &fromNumber))
	assert.Equal(t, fromString, fromNumber)

	var bad MangaID
	assert.Error(t, json.Unmarshal([]byte(`"one"`), &bad))
}

func TestTitle_Resolve(t *testing.T) {
	tests := []struct {
		name  string
		title Title
		want  string
	}{
		{name: "romaji wins", title: Title{Romaji: "Shingeki no Kyojin", English: "Attack on Titan", Native: "進撃の巨人"}, want: "Shingeki no Kyojin"},
		{name: "english when romaji empty", title: Title{English: "Attack on Titan", Native: "進撃の巨人"}, want: "Attack on Titan"},
		{name: "native last", title: Title{Native: "進撃の巨人"}, want: "進撃の巨人"},
		{name: "all empty", title: Title{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.title.Resolve())
		})
	}
}

func TestParseMediaStatus(t *testing.T) {
	tests := []struct {
		input string
		want  MediaStatus
	}{
		{"RELEASING", MediaStatusReleasing},
		{"FINISHED", MediaStatusFinished},
		{"NOT_YET_RELEASED", MediaStatusNotYetReleased},
		{"CANCELLED", MediaStatusCancelled},
		{"HIATUS", MediaStatusHiatus},
		{"hiatus", MediaStatusHiatus},
		{"", MediaStatusUnknown},
		{"SOMETHING_NEW", MediaStatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMediaStatus(tt.input))
		})
	}

	assert.Equal(t, "Unknown", MediaStatusUnknown.Label())
	assert.Equal(t, "Releasing", MediaStatusReleasing.Label())
}

func TestCountLabel(t *testing.T) {
	zero, many := 0, 139

	assert.Equal(t, "?", CountLabel(nil))
	assert.Equal(t, "0", CountLabel(&zero))
	assert.Equal(t, "139", CountLabel(&many))
}

func TestIsCatalogCoverURL(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"https://s4.anilist.co/file/anilistcdn/media/manga/cover/large/bx30002.jpg", true},
		{"https://anilist.co/img/cover.jpg", true},
		{"https://S4.AniList.co/cover.jpg", true},
		{"https://s4.anilist.co:443/cover.jpg", true},
		{"http://s4.anilist.co/cover.jpg", false},
		{"https://127.0.0.1/cover.jpg", false},
		{"https://localhost:8080/cover.jpg", false},
		{"https://evilanilist.co/cover.jpg", false},
		{"https://anilist.co.evil.example/cover.jpg", false},
		{"https://s4.anilist.co:8443/cover.jpg", false},
		{"https://user@s4.anilist.co/cover.jpg", false},
		{"file:///etc/passwd", false},
		{"not a url", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCatalogCoverURL(tt.raw))
		})
	}
}
