package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	domainerrors "github.com/zarko379/iMangarr-ng/internal/errors"
	"github.com/zarko379/iMangarr-ng/internal/sse"
	"github.com/zarko379/iMangarr-ng/internal/store"
)

// DefaultMinQueryLength is the shortest query sent to the catalog.
const DefaultMinQueryLength = 3

// LibraryOptions configures a LibraryService.
type LibraryOptions struct {
	MinQueryLength int
	// Now overrides the clock used for added_at.
	Now func() time.Time
}

// LibraryService searches the catalog and maintains the watch list.
//
// Every add runs load, duplicate check, append and save under one mutex, so
// concurrent adds never lose entries and the same id is never stored twice.
type LibraryService struct {
	catalog  Catalog
	library  store.LibraryStore
	logger   *slog.Logger
	minQuery int
	now      func() time.Time

	mu sync.Mutex

	events EventEmitter
	index  LibraryIndexer
	covers CoverFetcher
}

// NewLibraryService creates a new library service.
func NewLibraryService(catalog Catalog, library store.LibraryStore, opts LibraryOptions, logger *slog.Logger) *LibraryService {
	if opts.MinQueryLength < 1 {
		opts.MinQueryLength = DefaultMinQueryLength
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &LibraryService{
		catalog:  catalog,
		library:  library,
		logger:   logger,
		minQuery: opts.MinQueryLength,
		now:      opts.Now,
		events:   noopEmitter{},
		covers:   noopCovers{},
	}
}

// SetEventEmitter sets where activity events go.
func (s *LibraryService) SetEventEmitter(e EventEmitter) {
	if e == nil {
		e = noopEmitter{}
	}
	s.events = e
}

// SetIndexer sets the title index used for library filtering.
func (s *LibraryService) SetIndexer(idx LibraryIndexer) {
	s.index = idx
}

// SetCoverFetcher sets the background cover cache.
func (s *LibraryService) SetCoverFetcher(c CoverFetcher) {
	if c == nil {
		c = noopCovers{}
	}
	s.covers = c
}

// MinQueryLength returns the configured minimum search length.
func (s *LibraryService) MinQueryLength() int {
	return s.minQuery
}

// Search queries the catalog and flags results that are already in the library.
// It never writes to storage.
func (s *LibraryService) Search(ctx context.Context, query string) *SearchOutcome {
	query = strings.TrimSpace(query)
	outcome := &SearchOutcome{Query: query, MinQuery: s.minQuery}

	if utf8.RuneCountInString(query) < s.minQuery {
		outcome.Kind = SearchTooShort
		return outcome
	}

	media, err := s.catalog.Search(ctx, query)
	if err != nil {
		s.logger.Warn("catalog search failed",
			slog.String("query", query),
			slog.String("error", err.Error()))
		outcome.Kind = SearchFailed
		outcome.Err = domainerrors.CatalogUnavailable(err)
		return outcome
	}

	if len(media) == 0 {
		outcome.Kind = SearchEmpty
		return outcome
	}

	entries, err := s.library.LoadLibrary(ctx)
	if err != nil {
		s.logger.Error("failed to load library for search",
			slog.String("query", query),
			slog.String("error", err.Error()))
		outcome.Kind = SearchFailed
		outcome.Err = fmt.Errorf("load library: %w", err)
		return outcome
	}

	added := domain.EntryIDs(entries)
	outcome.Results = make([]SearchResult, 0, len(media))
	for _, m := range media {
		_, ok := added[m.ID]
		outcome.Results = append(outcome.Results, SearchResult{
			Media:        m,
			Title:        m.Title.Resolve(),
			AlreadyAdded: ok,
		})
	}
	outcome.Kind = SearchResults

	s.logger.Debug("catalog search",
		slog.String("query", query),
		slog.Int("results", len(media)),
		slog.Int("already_added", len(outcome.Results)-countNew(outcome.Results)))
	return outcome
}

func countNew(results []SearchResult) int {
	n := 0
	for _, r := range results {
		if !r.AlreadyAdded {
			n++
		}
	}
	return n
}

// AddRequest describes a manga picked from the search results.
type AddRequest struct {
	ID    domain.MangaID
	Title string
	Cover string
}

// Add appends a new entry to the library unless the id is already present.
func (s *LibraryService) Add(ctx context.Context, req AddRequest) *AddOutcome {
	if req.ID <= 0 {
		return &AddOutcome{Kind: AddFailed, Err: domainerrors.Validation("manga id must be a positive number")}
	}

	entry, outcome := s.addLocked(ctx, req)
	if outcome != nil {
		return outcome
	}

	s.logger.Info("manga added to library",
		slog.String("manga_id", entry.ID.String()),
		slog.String("title", entry.Title))

	s.events.Emit(sse.NewEntryAddedEvent(entry))
	if s.index != nil {
		if err := s.index.Index(entry); err != nil {
			s.logger.Warn("failed to index library entry",
				slog.String("manga_id", entry.ID.String()),
				slog.String("error", err.Error()))
		}
	}
	if entry.Cover != "" {
		s.covers.Enqueue(entry.ID, entry.Cover)
	}

	return &AddOutcome{Kind: AddAdded, Entry: &entry}
}

// addLocked performs the read-modify-write. A non-nil outcome ends the add.
func (s *LibraryService) addLocked(ctx context.Context, req AddRequest) (domain.Entry, *AddOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A save that has started completes even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	entries, err := s.library.LoadLibrary(ctx)
	if err != nil {
		s.logger.Error("failed to load library",
			slog.String("manga_id", req.ID.String()),
			slog.String("error", err.Error()))
		return domain.Entry{}, &AddOutcome{Kind: AddFailed, Err: fmt.Errorf("load library: %w", err)}
	}

	if domain.ContainsEntry(entries, req.ID) {
		return domain.Entry{}, s.alreadyExists(req)
	}

	entry := domain.NewEntry(req.ID, req.Title, req.Cover, s.now())

	if appender, ok := s.library.(store.EntryAppender); ok {
		err = appender.AppendEntry(ctx, entry)
		if domainerrors.Is(err, store.ErrEntryExists) {
			return domain.Entry{}, s.alreadyExists(req)
		}
	} else {
		err = s.library.SaveLibrary(ctx, append(entries, entry))
	}
	if err != nil {
		s.logger.Error("failed to save library",
			slog.String("manga_id", req.ID.String()),
			slog.String("error", err.Error()))
		return domain.Entry{}, &AddOutcome{Kind: AddFailed, Err: fmt.Errorf("save library: %w", err)}
	}

	return entry, nil
}

func (s *LibraryService) alreadyExists(req AddRequest) *AddOutcome {
	s.logger.Debug("manga already in library", slog.String("manga_id", req.ID.String()))
	return &AddOutcome{
		Kind: AddAlreadyExists,
		Err:  domainerrors.AlreadyExistsf("manga %s is already in the library", req.ID),
	}
}

// List returns the library in insertion order. A non-empty filter keeps only
// entries whose title matches it.
func (s *LibraryService) List(ctx context.Context, filter string) ([]domain.Entry, error) {
	entries, err := s.library.LoadLibrary(ctx)
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}

	filter = strings.TrimSpace(filter)
	if filter == "" {
		return entries, nil
	}

	if s.index == nil {
		needle := strings.ToLower(filter)
		out := entries[:0]
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.Title), needle) {
				out = append(out, e)
			}
		}
		return out, nil
	}

	matches, err := s.index.Match(filter)
	if err != nil {
		return nil, fmt.Errorf("filter library: %w", err)
	}
	out := make([]domain.Entry, 0, len(matches))
	for _, e := range entries {
		if _, ok := matches[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// Get returns a single entry.
func (s *LibraryService) Get(ctx context.Context, id domain.MangaID) (*domain.Entry, error) {
	entries, err := s.library.LoadLibrary(ctx)
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, domainerrors.NotFoundf("manga %s is not in the library", id)
}

// Reload rebuilds the title index from storage and announces the reload.
func (s *LibraryService) Reload(ctx context.Context, source string) (int, error) {
	entries, err := s.library.LoadLibrary(ctx)
	if err != nil {
		return 0, fmt.Errorf("load library: %w", err)
	}

	if s.index != nil {
		if err := s.index.Rebuild(entries); err != nil {
			return 0, fmt.Errorf("rebuild library index: %w", err)
		}
	}

	s.logger.Info("library reloaded",
		slog.String("source", source),
		slog.Int("entries", len(entries)))
	s.events.Emit(sse.NewLibraryReloadedEvent(source, len(entries)))
	return len(entries), nil
}
