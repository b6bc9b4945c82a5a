package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/segment"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/errors"
)

// File keeps one segment file per document under a data directory and
// answers key reads from the segment dictionary without loading the whole
// index.
type File struct {
	dir     string
	writer  *segment.Writer
	mu      sync.RWMutex
	readers map[string]*segment.Reader
	logger  *slog.Logger
}

// NewFile opens (creating if needed) a segment directory.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating index data directory: %w", err)
	}
	return &File{
		dir:     dir,
		writer:  segment.NewWriter(dir),
		readers: make(map[string]*segment.Reader),
		logger:  slog.Default().With("component", "file-store"),
	}, nil
}

func (s *File) ReadIndex(_ context.Context, docID, key, locale string) (Lookup, error) {
	var pl index.PostingList
	err := s.view(segment.Name(docID, locale), func(r *segment.Reader) error {
		if r == nil {
			return nil
		}
		var err error
		pl, err = r.Search(key)
		return err
	})
	if err != nil {
		return Lookup{}, apperrors.StoreError("file read", err)
	}
	return Lookup{Postings: pl}, nil
}

func (s *File) StoreIndex(_ context.Context, docID string, idx index.Index, locale string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, err := s.writer.Write(docID, locale, idx)
	if err != nil {
		return apperrors.StoreError("file write", err)
	}
	if old, ok := s.readers[name]; ok {
		if err := old.Close(); err != nil {
			s.logger.Warn("closing replaced segment", "segment", name, "error", err)
		}
		delete(s.readers, name)
	}
	s.logger.Debug("segment written", "segment", name, "doc_id", docID, "keys", len(idx))
	return nil
}

// Load returns the full stored index of docID, or nil when none exists.
func (s *File) Load(docID, locale string) (index.Index, error) {
	var idx index.Index
	err := s.view(segment.Name(docID, locale), func(r *segment.Reader) error {
		if r == nil {
			return nil
		}
		var err error
		idx, err = r.Load()
		return err
	})
	return idx, err
}

// Documents scans the directory for segments of locale, sorted by ID.
func (s *File) Documents(_ context.Context, locale string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.StoreError("file list", err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), segment.FileExt) {
			continue
		}
		err := s.view(entry.Name(), func(r *segment.Reader) error {
			if r != nil && r.Locale() == locale {
				ids = append(ids, r.DocID())
			}
			return nil
		})
		if err != nil {
			s.logger.Error("failed to open segment, skipping", "segment", entry.Name(), "error", err)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Close releases every open segment.
func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for name, r := range s.readers {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing segment %s: %w", name, err))
		}
	}
	s.readers = make(map[string]*segment.Reader)
	return errors.Join(errs...)
}

// view calls fn with the open reader of a segment while holding the read
// lock, so StoreIndex cannot close the reader under fn. The reader is opened
// on first use. fn gets nil when the segment file does not exist.
func (s *File) view(name string, fn func(r *segment.Reader) error) error {
	for {
		s.mu.RLock()
		if r, ok := s.readers[name]; ok {
			err := fn(r)
			s.mu.RUnlock()
			return err
		}
		s.mu.RUnlock()

		found, err := s.open(name)
		if err != nil {
			return err
		}
		if !found {
			return fn(nil)
		}
	}
}

// open caches a reader for the segment. A missing file reports false and no
// error.
func (s *File) open(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.readers[name]; ok {
		return true, nil
	}
	r, err := segment.OpenReader(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	s.readers[name] = r
	return true, nil
}
