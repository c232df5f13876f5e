package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/zarko379/iMangarr-ng/internal/errors"
	"github.com/zarko379/iMangarr-ng/internal/validation"
)

type addForm struct {
	MangaID string `form:"manga_id" validate:"required,manga_id"`
	Title   string `form:"title" validate:"max=500"`
	Cover   string `form:"cover" validate:"omitempty,cover_url"`
}

type setupBody struct {
	RootPath string `json:"root_path" validate:"required,max=4096"`
}

func TestValidator_Valid(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(addForm{MangaID: "30002", Title: "Berserk", Cover: "https://s4.anilist.co/file/anilistcdn/media/manga/cover/large/bx30002.jpg"}))
	assert.NoError(t, v.Validate(addForm{MangaID: "1"}))
	assert.NoError(t, v.Validate(setupBody{RootPath: "/srv/manga"}))
}

func TestValidator_Errors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		input     any
		wantField string
		wantMsg   string
	}{
		{name: "missing id", input: addForm{}, wantField: "manga_id", wantMsg: "is required"},
		{name: "non numeric id", input: addForm{MangaID: "abc"}, wantField: "manga_id", wantMsg: "positive numeric"},
		{name: "zero id", input: addForm{MangaID: "0"}, wantField: "manga_id", wantMsg: "positive numeric"},
		{name: "bad cover", input: addForm{MangaID: "5", Cover: "not a url"}, wantField: "cover", wantMsg: "AniList image URL"},
		{name: "loopback cover", input: addForm{MangaID: "5", Cover: "http://127.0.0.1:8080/admin"}, wantField: "cover", wantMsg: "AniList image URL"},
		{name: "foreign https cover", input: addForm{MangaID: "5", Cover: "https://img.example/b.jpg"}, wantField: "cover", wantMsg: "AniList image URL"},
		{name: "missing root path", input: setupBody{}, wantField: "root_path", wantMsg: "is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			require.Error(t, err)

			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			fields := validation.FieldErrors(err)
			assert.Contains(t, fields[tt.wantField], tt.wantMsg)
		})
	}
}

func TestFieldErrors_NonValidation(t *testing.T) {
	assert.Nil(t, validation.FieldErrors(assert.AnError))
}
