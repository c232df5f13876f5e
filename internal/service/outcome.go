package service

import (
	"github.com/zarko379/iMangarr-ng/internal/domain"
	domainerrors "github.com/zarko379/iMangarr-ng/internal/errors"
)

// SearchKind classifies the result of a search.
type SearchKind int

const (
	// SearchTooShort means the query was below the minimum length. The catalog
	// was not called.
	SearchTooShort SearchKind = iota
	// SearchFailed means the catalog or the library could not be read.
	SearchFailed
	// SearchEmpty means the catalog returned nothing.
	SearchEmpty
	// SearchResults carries at least one result.
	SearchResults
)

func (k SearchKind) String() string {
	switch k {
	case SearchTooShort:
		return "too_short"
	case SearchFailed:
		return "failed"
	case SearchEmpty:
		return "empty"
	case SearchResults:
		return "results"
	default:
		return "unknown"
	}
}

// SearchResult is one catalog item annotated against the library.
type SearchResult struct {
	Media        domain.Media
	Title        string
	AlreadyAdded bool
}

// ChaptersLabel renders the chapter count, "?" when unknown.
func (r SearchResult) ChaptersLabel() string { return domain.CountLabel(r.Media.Chapters) }

// VolumesLabel renders the volume count, "?" when unknown.
func (r SearchResult) VolumesLabel() string { return domain.CountLabel(r.Media.Volumes) }

// SearchOutcome is the result of LibraryService.Search.
type SearchOutcome struct {
	Kind     SearchKind
	Query    string
	MinQuery int
	Results  []SearchResult
	Err      error
}

// AsError maps the outcome onto a domain error for JSON callers. Empty and
// successful searches return nil.
func (o *SearchOutcome) AsError() error {
	switch o.Kind {
	case SearchTooShort:
		return domainerrors.Validationf("query must be at least %d characters", o.MinQuery)
	case SearchFailed:
		var domainErr *domainerrors.Error
		if domainerrors.As(o.Err, &domainErr) {
			return o.Err
		}
		return domainerrors.Wrap(o.Err, domainerrors.CodeInternal, "search failed")
	default:
		return nil
	}
}

// AddKind classifies the result of an add.
type AddKind int

const (
	// AddAdded means a new entry was persisted.
	AddAdded AddKind = iota
	// AddAlreadyExists means the id was already in the library. Nothing was written.
	AddAlreadyExists
	// AddFailed means the library could not be read or written.
	AddFailed
)

func (k AddKind) String() string {
	switch k {
	case AddAdded:
		return "added"
	case AddAlreadyExists:
		return "already_exists"
	case AddFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// AddOutcome is the result of LibraryService.Add.
type AddOutcome struct {
	Kind  AddKind
	Entry *domain.Entry
	Err   error
}

// AsError maps the outcome onto a domain error for JSON callers.
func (o *AddOutcome) AsError() error {
	switch o.Kind {
	case AddAdded:
		return nil
	case AddAlreadyExists:
		return o.Err
	default:
		var domainErr *domainerrors.Error
		if domainerrors.As(o.Err, &domainErr) {
			return o.Err
		}
		return domainerrors.Wrap(o.Err, domainerrors.CodeInternal, "could not save the library")
	}
}
