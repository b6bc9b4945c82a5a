// Package store persists per-document n-gram indexes so documents can be
// searched without re-tokenizing them on every query. Backends may answer a
// key lookup with a single posting list or with the whole document index.
package store

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/index"
)

// Lookup is the answer to a key read. When Index is non-nil the backend
// returned the whole document index and Postings is ignored. A zero Lookup
// means the key has no postings.
type Lookup struct {
	Index    index.Index
	Postings index.PostingList
}

// Reader fetches postings for one n-gram key of a document.
type Reader interface {
	ReadIndex(ctx context.Context, docID, key, locale string) (Lookup, error)
}

// Writer persists a freshly built document index, replacing any previous one.
type Writer interface {
	StoreIndex(ctx context.Context, docID string, idx index.Index, locale string) error
}

// Store is a full persistence backend.
type Store interface {
	Reader
	Writer
}

// Catalog is implemented by stores that can enumerate their documents.
type Catalog interface {
	Documents(ctx context.Context, locale string) ([]string, error)
}

// Prefilter is implemented by stores that can cheaply list the documents
// containing at least one n-gram of every term. termGrams holds the n-grams of
// each query term.
type Prefilter interface {
	Candidates(ctx context.Context, locale string, termGrams [][]string) ([]string, error)
}

// Nop stores nothing and reports no postings.
type Nop struct{}

func (Nop) ReadIndex(context.Context, string, string, string) (Lookup, error) {
	return Lookup{}, nil
}

func (Nop) StoreIndex(context.Context, string, index.Index, string) error {
	return nil
}

// Source adapts a Reader to the matcher for a single document match. Per-key
// reads are cached for the lifetime of the Source; once the backend returns
// a whole index every further lookup is served from it.
type Source struct {
	reader Reader
	docID  string
	locale string
	full   index.Index
	keys   map[string]index.PostingList
}

// NewSource returns a Source reading docID from r.
func NewSource(r Reader, docID, locale string) *Source {
	return &Source{
		reader: r,
		docID:  docID,
		locale: locale,
		keys:   make(map[string]index.PostingList),
	}
}

func (s *Source) Postings(ctx context.Context, key string) (index.PostingList, error) {
	if s.full != nil {
		return s.full[key], nil
	}
	if pl, ok := s.keys[key]; ok {
		return pl, nil
	}
	lk, err := s.reader.ReadIndex(ctx, s.docID, key, s.locale)
	if err != nil {
		return nil, fmt.Errorf("reading index of %q for key %q: %w", s.docID, key, err)
	}
	if lk.Index != nil {
		s.full = lk.Index
		s.keys = nil
		return s.full[key], nil
	}
	s.keys[key] = lk.Postings
	return lk.Postings, nil
}
