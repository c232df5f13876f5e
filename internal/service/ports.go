package service

import (
	"context"

	"github.com/zarko379/iMangarr-ng/internal/domain"
)

// Catalog looks up manga in the external catalog.
type Catalog interface {
	Search(ctx context.Context, query string) ([]domain.Media, error)
}

// EventEmitter publishes activity events. The SSE manager implements it.
type EventEmitter interface {
	Emit(event any)
}

// LibraryIndexer keeps a searchable view of the library titles.
type LibraryIndexer interface {
	Index(entry domain.Entry) error
	Rebuild(entries []domain.Entry) error
	Match(query string) (map[domain.MangaID]struct{}, error)
}

// CoverFetcher caches cover images in the background.
type CoverFetcher interface {
	Enqueue(id domain.MangaID, url string)
}

type noopEmitter struct{}

func (noopEmitter) Emit(any) {}

type noopCovers struct{}

func (noopCovers) Enqueue(domain.MangaID, string) {}
