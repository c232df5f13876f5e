package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	"github.com/zarko379/iMangarr-ng/internal/media/images"
)

// coverMaxAge is how long browsers may reuse a cached cover without revalidating.
const coverMaxAge = 24 * 60 * 60

func coverPath(id domain.MangaID) string {
	return "/covers/" + id.String()
}

// handleServeCover streams a cached cover. Entries whose cover has not been
// downloaded yet redirect to the remote URL when it is on the catalog's hosts.
// GET /covers/{id}
func (s *Server) handleServeCover(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseMangaID(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if s.covers == nil || !s.covers.Exists(id.String()) {
		s.redirectToRemoteCover(w, r, id)
		return
	}

	hash, err := s.covers.Hash(id.String())
	if err != nil {
		s.logger.Error("failed to hash cover", "manga_id", id.String(), "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	etag := `"` + hash + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(coverMaxAge))

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, err := s.covers.Get(id.String())
	if errors.Is(err, images.ErrNotFound) {
		s.redirectToRemoteCover(w, r, id)
		return
	}
	if err != nil {
		s.logger.Error("failed to read cover", "manga_id", id.String(), "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) redirectToRemoteCover(w http.ResponseWriter, r *http.Request, id domain.MangaID) {
	entry, err := s.services.Library.Get(r.Context(), id)
	if err != nil || !domain.IsCatalogCoverURL(entry.Cover) {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, entry.Cover, http.StatusTemporaryRedirect)
}
