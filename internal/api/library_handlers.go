package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	"github.com/zarko379/iMangarr-ng/internal/service"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library",
		Summary:     "List library",
		Description: "Returns the watch list in insertion order, optionally filtered by title",
		Tags:        []string{"Library"},
	}, s.handleListLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLibraryEntry",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/{id}",
		Summary:     "Get library entry",
		Description: "Returns one entry by AniList id",
		Tags:        []string{"Library"},
	}, s.handleGetLibraryEntry)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addLibraryEntry",
		Method:        http.MethodPost,
		Path:          "/api/v1/library",
		Summary:       "Add to library",
		Description:   "Adds a manga to the watch list. Adding an id twice returns 409.",
		Tags:          []string{"Library"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddLibraryEntry)
}

// === DTOs ===

// EntryResponse is a library entry in API responses.
type EntryResponse struct {
	ID                 int64     `json:"id" doc:"AniList media id"`
	Title              string    `json:"title" doc:"Title at the time it was added"`
	Cover              string    `json:"cover" doc:"Remote cover URL"`
	CachedCover        string    `json:"cached_cover,omitempty" doc:"Local cover path when cached"`
	BlurHash           string    `json:"blur_hash,omitempty" doc:"BlurHash placeholder for the cached cover"`
	AddedAt            time.Time `json:"added_at" doc:"When the entry was added"`
	ChaptersDownloaded int       `json:"chapters_downloaded" doc:"Downloaded chapters"`
	VolumesDownloaded  int       `json:"volumes_downloaded" doc:"Downloaded volumes"`
	Status             string    `json:"status" doc:"Entry status"`
}

// ListLibraryInput contains the optional title filter.
type ListLibraryInput struct {
	Q string `query:"q" doc:"Title filter; accents and case are ignored"`
}

// LibraryResponse lists library entries.
type LibraryResponse struct {
	Entries []EntryResponse `json:"entries" doc:"Entries in insertion order"`
	Total   int             `json:"total" doc:"Number of entries returned"`
}

// LibraryOutput wraps the library response for Huma.
type LibraryOutput struct {
	Body LibraryResponse
}

// GetEntryInput identifies a library entry.
type GetEntryInput struct {
	ID int64 `path:"id" minimum:"1" doc:"AniList media id"`
}

// EntryOutput wraps a single entry for Huma.
type EntryOutput struct {
	Body EntryResponse
}

// AddEntryRequest is the request body for adding a manga.
type AddEntryRequest struct {
	ID    int64  `json:"id" minimum:"1" doc:"AniList media id"`
	Title string `json:"title" maxLength:"512" doc:"Display title"`
	Cover string `json:"cover,omitempty" format:"uri" maxLength:"2048" validate:"omitempty,cover_url" doc:"https cover URL on the AniList image CDN"`
}

// AddEntryInput wraps the add request for Huma.
type AddEntryInput struct {
	Body AddEntryRequest
}

// === Handlers ===

func (s *Server) handleListLibrary(ctx context.Context, input *ListLibraryInput) (*LibraryOutput, error) {
	entries, err := s.services.Library.List(ctx, input.Q)
	if err != nil {
		s.logger.Error("failed to list library", "error", err)
		return nil, toAPIError(err)
	}

	resp := LibraryResponse{Entries: make([]EntryResponse, 0, len(entries)), Total: len(entries)}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, s.toEntryResponse(e))
	}
	return &LibraryOutput{Body: resp}, nil
}

func (s *Server) handleGetLibraryEntry(ctx context.Context, input *GetEntryInput) (*EntryOutput, error) {
	entry, err := s.services.Library.Get(ctx, domain.MangaID(input.ID))
	if err != nil {
		return nil, toAPIError(err)
	}
	return &EntryOutput{Body: s.toEntryResponse(*entry)}, nil
}

func (s *Server) handleAddLibraryEntry(ctx context.Context, input *AddEntryInput) (*EntryOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, toAPIError(err)
	}
	outcome := s.services.Library.Add(ctx, service.AddRequest{
		ID:    domain.MangaID(input.Body.ID),
		Title: input.Body.Title,
		Cover: input.Body.Cover,
	})
	if err := outcome.AsError(); err != nil {
		return nil, toAPIError(err)
	}
	return &EntryOutput{Body: s.toEntryResponse(*outcome.Entry)}, nil
}

func (s *Server) toEntryResponse(e domain.Entry) EntryResponse {
	resp := EntryResponse{
		ID:                 int64(e.ID),
		Title:              e.Title,
		Cover:              e.Cover,
		AddedAt:            e.AddedAt.Time,
		ChaptersDownloaded: e.ChaptersDownloaded,
		VolumesDownloaded:  e.VolumesDownloaded,
		Status:             string(e.Status),
	}
	if s.covers != nil && s.covers.Exists(e.ID.String()) {
		resp.CachedCover = coverPath(e.ID)
		resp.BlurHash = s.covers.BlurHash(e.ID.String())
	}
	return resp
}
