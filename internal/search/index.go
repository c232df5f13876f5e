// Package search keeps an in-memory full-text index of library titles for the
// dashboard filter.
package search

import (
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/zarko379/iMangarr-ng/internal/domain"
)

const (
	titleAnalyzer = "folded_title"
	batchSize     = 500
)

type titleDocument struct {
	Title string `json:"title"`
	ID    string `json:"id"`
}

// LibraryIndex is a memory-only Bleve index over entry titles.
//
// The store stays authoritative; the index is rebuilt from it at startup and
// whenever the library document changes on disk.
type LibraryIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	logger *slog.Logger
}

// NewLibraryIndex creates an empty index.
func NewLibraryIndex(logger *slog.Logger) (*LibraryIndex, error) {
	idx, err := newMemIndex()
	if err != nil {
		return nil, err
	}
	return &LibraryIndex{index: idx, logger: logger}, nil
}

func newMemIndex() (bleve.Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create library index: %w", err)
	}
	return idx, nil
}

func buildMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()

	// Titles are folded before indexing, so the analyzer only has to split
	// words and lowercase.
	if err := im.AddCustomAnalyzer(titleAnalyzer, map[string]any{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []any{lowercase.Name},
	}); err != nil {
		panic(fmt.Sprintf("register title analyzer: %v", err))
	}

	doc := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = titleAnalyzer
	doc.AddFieldMappingsAt("title", title)

	id := bleve.NewTextFieldMapping()
	id.Analyzer = keyword.Name
	id.Store = true
	doc.AddFieldMappingsAt("id", id)

	im.DefaultMapping = doc
	im.DefaultAnalyzer = titleAnalyzer
	return im
}

func documentFor(entry domain.Entry) titleDocument {
	return titleDocument{Title: Fold(entry.Title), ID: entry.ID.String()}
}

// Index adds or replaces one entry.
func (l *LibraryIndex) Index(entry domain.Entry) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index.Index(entry.ID.String(), documentFor(entry))
}

// Rebuild replaces the index contents with entries.
func (l *LibraryIndex) Rebuild(entries []domain.Entry) error {
	fresh, err := newMemIndex()
	if err != nil {
		return err
	}

	for i := 0; i < len(entries); i += batchSize {
		end := min(i+batchSize, len(entries))
		batch := fresh.NewBatch()
		for _, e := range entries[i:end] {
			if err := batch.Index(e.ID.String(), documentFor(e)); err != nil {
				_ = fresh.Close()
				return fmt.Errorf("batch index %s: %w", e.ID, err)
			}
		}
		if err := fresh.Batch(batch); err != nil {
			_ = fresh.Close()
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	l.mu.Lock()
	old := l.index
	l.index = fresh
	l.mu.Unlock()

	if err := old.Close(); err != nil {
		l.logger.Warn("failed to close previous library index", slog.String("error", err.Error()))
	}
	l.logger.Debug("library index rebuilt", slog.Int("entries", len(entries)))
	return nil
}

// Count returns the number of indexed entries.
func (l *LibraryIndex) Count() (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index.DocCount()
}

// Match returns the ids whose title contains every word of q, allowing
// prefixes and one typo per longer word.
func (l *LibraryIndex) Match(q string) (map[domain.MangaID]struct{}, error) {
	words := terms(Fold(q))
	if len(words) == 0 {
		return map[domain.MangaID]struct{}{}, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	total, err := l.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count library index: %w", err)
	}
	if total == 0 {
		return map[domain.MangaID]struct{}{}, nil
	}

	req := bleve.NewSearchRequestOptions(buildQuery(words), int(total), 0, false)
	res, err := l.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search library index: %w", err)
	}

	ids := make(map[domain.MangaID]struct{}, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := domain.ParseMangaID(hit.ID)
		if err != nil {
			continue
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}

// Close releases the index.
func (l *LibraryIndex) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index.Close()
}

func buildQuery(words []string) query.Query {
	perWord := make([]query.Query, 0, len(words))
	for _, w := range words {
		match := bleve.NewMatchQuery(w)
		match.SetField("title")
		match.SetOperator(query.MatchQueryOperatorAnd)

		prefix := bleve.NewPrefixQuery(w)
		prefix.SetField("title")

		alternatives := []query.Query{match, prefix}
		if utf8.RuneCountInString(w) >= 4 {
			fuzzy := bleve.NewFuzzyQuery(w)
			fuzzy.SetField("title")
			fuzzy.SetFuzziness(1)
			alternatives = append(alternatives, fuzzy)
		}
		perWord = append(perWord, bleve.NewDisjunctionQuery(alternatives...))
	}
	return bleve.NewConjunctionQuery(perWord...)
}
