package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/zarko379/iMangarr-ng/internal/domain"
	"github.com/zarko379/iMangarr-ng/internal/sse"
	"github.com/zarko379/iMangarr-ng/internal/store"
)

var (
	errCatalogDown = errors.New("catalog down")
	errDiskFull    = errors.New("disk full")
)

type fakeCatalog struct {
	calls atomic.Int32
	media []domain.Media
	err   error
}

func (c *fakeCatalog) Search(_ context.Context, _ string) ([]domain.Media, error) {
	c.calls.Add(1)
	return c.media, c.err
}

// countingLibrary exposes only LibraryStore so the service takes the
// whole-collection save path.
type countingLibrary struct {
	store.LibraryStore
	loads   atomic.Int32
	saves   atomic.Int32
	loadErr error
	saveErr error
}

func newCountingLibrary(entries ...domain.Entry) *countingLibrary {
	mem := store.NewMemory()
	_ = mem.SaveLibrary(context.Background(), entries)
	return &countingLibrary{LibraryStore: mem}
}

func (l *countingLibrary) LoadLibrary(ctx context.Context) ([]domain.Entry, error) {
	l.loads.Add(1)
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	return l.LibraryStore.LoadLibrary(ctx)
}

func (l *countingLibrary) SaveLibrary(ctx context.Context, entries []domain.Entry) error {
	l.saves.Add(1)
	if l.saveErr != nil {
		return l.saveErr
	}
	return l.LibraryStore.SaveLibrary(ctx, entries)
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingEmitter) Emit(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := event.(sse.Event); ok {
		r.events = append(r.events, e)
	}
}

func (r *recordingEmitter) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingCovers struct {
	mu   sync.Mutex
	jobs map[domain.MangaID]string
}

func (c *recordingCovers) Enqueue(id domain.MangaID, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.jobs == nil {
		c.jobs = make(map[domain.MangaID]string)
	}
	c.jobs[id] = url
}

type stubIndex struct {
	indexed []domain.MangaID
	rebuilt int
	matches map[domain.MangaID]struct{}
}

func (s *stubIndex) Index(entry domain.Entry) error {
	s.indexed = append(s.indexed, entry.ID)
	return nil
}

func (s *stubIndex) Rebuild(entries []domain.Entry) error {
	s.rebuilt = len(entries)
	return nil
}

func (s *stubIndex) Match(string) (map[domain.MangaID]struct{}, error) {
	return s.matches, nil
}

func intPtr(n int) *int { return &n }
