package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	"github.com/zarko379/iMangarr-ng/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search the catalog",
		Description: "Searches AniList for manga and flags results already in the library",
		Tags:        []string{"Search"},
		Middlewares: huma.Middlewares{s.limitSearch},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for a catalog search.
type SearchInput struct {
	Q string `query:"q" doc:"Search text; shorter than the minimum length is rejected"`
}

// MangaResponse is one catalog result.
type MangaResponse struct {
	ID           int64        `json:"id" doc:"AniList media id"`
	Title        string       `json:"title" doc:"Best available title"`
	Titles       domain.Title `json:"titles" doc:"All catalog titles"`
	CoverURL     string       `json:"cover_url" doc:"Cover image URL"`
	Status       string       `json:"status" doc:"Publication status"`
	Chapters     *int         `json:"chapters" doc:"Chapter count, null when unknown"`
	Volumes      *int         `json:"volumes" doc:"Volume count, null when unknown"`
	Description  string       `json:"description,omitempty" doc:"Synopsis as Markdown"`
	AlreadyAdded bool         `json:"already_added" doc:"Whether the manga is in the library"`
}

// SearchResponse contains search results in API responses.
type SearchResponse struct {
	Query   string          `json:"query" doc:"Trimmed query"`
	Results []MangaResponse `json:"results" doc:"Results in catalog relevance order"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	outcome := s.services.Library.Search(ctx, input.Q)
	if err := outcome.AsError(); err != nil {
		return nil, toAPIError(err)
	}

	resp := SearchResponse{
		Query:   outcome.Query,
		Results: make([]MangaResponse, 0, len(outcome.Results)),
	}
	for _, r := range outcome.Results {
		resp.Results = append(resp.Results, toMangaResponse(r))
	}
	return &SearchOutput{Body: resp}, nil
}

func toMangaResponse(r service.SearchResult) MangaResponse {
	return MangaResponse{
		ID:           int64(r.Media.ID),
		Title:        r.Title,
		Titles:       r.Media.Title,
		CoverURL:     r.Media.CoverURL,
		Status:       string(r.Media.Status),
		Chapters:     r.Media.Chapters,
		Volumes:      r.Media.Volumes,
		Description:  r.Media.Description,
		AlreadyAdded: r.AlreadyAdded,
	}
}
