package store

import (
	"context"
	"sync"

	"github.com/RoaringBitmap/roaring"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/index"
)

type docKey struct {
	locale string
	id     string
}

type gramKey struct {
	locale string
	gram   string
}

// Memory keeps document indexes in process. Alongside the indexes it keeps,
// per n-gram, a bitmap of the documents containing it, which answers
// Candidates without touching any posting list.
type Memory struct {
	mu       sync.RWMutex
	indexes  map[docKey]index.Index
	ordinals map[docKey]uint32
	docs     []docKey
	grams    map[gramKey]*roaring.Bitmap
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		indexes:  make(map[docKey]index.Index),
		ordinals: make(map[docKey]uint32),
		grams:    make(map[gramKey]*roaring.Bitmap),
	}
}

// ReadIndex returns the whole document index so the matcher needs a single
// round trip.
func (m *Memory) ReadIndex(_ context.Context, docID, _ string, locale string) (Lookup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.indexes[docKey{locale: locale, id: docID}]
	if !ok {
		return Lookup{}, nil
	}
	return Lookup{Index: idx}, nil
}

func (m *Memory) StoreIndex(_ context.Context, docID string, idx index.Index, locale string) error {
	dk := docKey{locale: locale, id: docID}
	m.mu.Lock()
	defer m.mu.Unlock()
	ord, known := m.ordinals[dk]
	if !known {
		ord = uint32(len(m.docs))
		m.ordinals[dk] = ord
		m.docs = append(m.docs, dk)
	}
	if old, ok := m.indexes[dk]; ok {
		for gram := range old {
			if bm, ok := m.grams[gramKey{locale: locale, gram: gram}]; ok {
				bm.Remove(ord)
			}
		}
	}
	for gram := range idx {
		gk := gramKey{locale: locale, gram: gram}
		bm, ok := m.grams[gk]
		if !ok {
			bm = roaring.NewBitmap()
			m.grams[gk] = bm
		}
		bm.Add(ord)
	}
	m.indexes[dk] = idx
	return nil
}

// Delete removes a document. It reports whether the document existed.
func (m *Memory) Delete(docID, locale string) bool {
	dk := docKey{locale: locale, id: docID}
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.indexes[dk]
	if !ok {
		return false
	}
	ord := m.ordinals[dk]
	for gram := range idx {
		if bm, ok := m.grams[gramKey{locale: locale, gram: gram}]; ok {
			bm.Remove(ord)
		}
	}
	delete(m.indexes, dk)
	return true
}

// Documents lists stored documents of locale in first-stored order.
func (m *Memory) Documents(_ context.Context, locale string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.indexes))
	for _, dk := range m.docs {
		if dk.locale != locale {
			continue
		}
		if _, ok := m.indexes[dk]; ok {
			ids = append(ids, dk.id)
		}
	}
	return ids, nil
}

// Candidates intersects, across terms, the union of the document bitmaps of
// each term's n-grams. Results keep first-stored order.
func (m *Memory) Candidates(_ context.Context, locale string, termGrams [][]string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result *roaring.Bitmap
	for _, grams := range termGrams {
		term := roaring.NewBitmap()
		for _, g := range grams {
			if bm, ok := m.grams[gramKey{locale: locale, gram: g}]; ok {
				term.Or(bm)
			}
		}
		if result == nil {
			result = term
		} else {
			result.And(term)
		}
		if result.IsEmpty() {
			return []string{}, nil
		}
	}
	if result == nil {
		return []string{}, nil
	}
	ids := make([]string, 0, result.GetCardinality())
	it := result.Iterator()
	for it.HasNext() {
		ids = append(ids, m.docs[it.Next()].id)
	}
	return ids, nil
}

// Len returns the number of stored documents across all locales.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.indexes)
}
