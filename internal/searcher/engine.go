// Package searcher is the entry point of the fuzzy search engine. It indexes
// document text, parses queries and ranks documents by how well their words
// match the query terms.
package searcher

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/analyzer"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/matcher"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Document is one searchable unit. A precomputed Index takes precedence over
// Text; a document with neither is read from the store by ID.
type Document struct {
	ID    string      `json:"id,omitempty"`
	Text  string      `json:"text,omitempty"`
	Index index.Index `json:"-"`
}

// SearchResult is one ranked document.
type SearchResult struct {
	Document Document       `json:"document"`
	Query    string         `json:"query"`
	Score    float64        `json:"score"`
	Marks    []matcher.Mark `json:"marks"`
}

// Engine indexes and searches documents. It is safe for concurrent use; all
// mutable state lives in the store.
type Engine struct {
	opts     Options
	analyzer analyzer.Analyzer
	builder  *index.Builder
	store    store.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates an Engine. A nil st keeps nothing between calls.
func New(opts Options, st store.Store) (*Engine, error) {
	if opts.Similarity < 0 || opts.Similarity > 1 {
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, http.StatusBadRequest,
			"similarity must be within [0, 1], got %g", opts.Similarity)
	}
	if opts.Analyzer == nil {
		opts.Analyzer = analyzer.New()
	}
	if opts.Workers < 1 {
		opts.Workers = defaultWorkers
	}
	builder, err := index.NewBuilder(opts.NGramSize, opts.Analyzer)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = store.Nop{}
	}
	return &Engine{
		opts:     opts,
		analyzer: opts.Analyzer,
		builder:  builder,
		store:    st,
		logger:   slog.Default().With("component", "search-engine"),
	}, nil
}

// WithMetrics makes the engine report to m and returns the engine.
func (e *Engine) WithMetrics(m *metrics.Metrics) *Engine {
	e.metrics = m
	return e
}

func (e *Engine) Options() Options {
	return e.opts
}

func (e *Engine) Store() store.Store {
	return e.store
}

func (e *Engine) locale(l string) string {
	if l == "" {
		return e.opts.DefaultLocale
	}
	return l
}

// BuildIndex indexes text. When docID is not empty the index is also handed
// to the store.
func (e *Engine) BuildIndex(ctx context.Context, text, docID, locale string) (index.Index, error) {
	locale = e.locale(locale)
	start := time.Now()
	idx := e.builder.Build(text, locale)
	if e.metrics != nil {
		e.metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())
	}
	e.logger.Debug("index built",
		"doc_id", docID,
		"locale", locale,
		"keys", len(idx),
		"words", idx.WordCount(),
	)
	if docID == "" {
		return idx, nil
	}
	if err := e.store.StoreIndex(ctx, docID, idx, locale); err != nil {
		e.countIndexed("error")
		return nil, err
	}
	e.countIndexed("success")
	return idx, nil
}

func (e *Engine) countIndexed(status string) {
	if e.metrics != nil {
		e.metrics.DocsIndexedTotal.WithLabelValues(status).Inc()
	}
}

// SearchText matches query against a single text indexed on the fly.
func (e *Engine) SearchText(ctx context.Context, text, query string, qo QueryOptions) ([]SearchResult, error) {
	return e.Search(ctx, []Document{{Text: text}}, query, qo)
}

// Search matches query against every document and returns the matching ones
// by descending score. Documents with equal scores keep their input order.
// An error is returned only for invalid input, cancellation or store
// failures; documents that do not match are simply left out.
func (e *Engine) Search(ctx context.Context, docs []Document, query string, qo QueryOptions) ([]SearchResult, error) {
	if e.opts.MaxDocuments > 0 && len(docs) > e.opts.MaxDocuments {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"too many documents: %d (max %d)", len(docs), e.opts.MaxDocuments)
	}
	start := time.Now()
	locale := e.locale(qo.Locale)
	plan := parser.Parse(query, locale, e.analyzer)
	if plan.Empty() || len(docs) == 0 {
		e.observe(qo, start, 0, nil)
		return []SearchResult{}, nil
	}

	mopts := matcher.Options{
		Exact:       qo.Exact,
		Consecutive: qo.Consecutive,
		Threshold:   e.opts.Similarity,
		NGramSize:   e.builder.NGramSize(),
	}
	slots := make([]SearchResult, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i, doc := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := matcher.Match(gctx, plan.Terms, e.source(doc, locale), mopts)
			if err != nil {
				return err
			}
			slots[i] = SearchResult{
				Document: doc,
				Query:    query,
				Score:    res.Score,
				Marks:    res.Marks,
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		e.observe(qo, start, 0, err)
		return nil, e.wrap(err)
	}
	if e.metrics != nil {
		e.metrics.DocumentsScanned.Add(float64(len(docs)))
	}

	results := ranker.Rank(slots, func(r SearchResult) float64 { return r.Score }, qo.Limit)
	e.observe(qo, start, len(results), nil)
	e.logger.Debug("search completed",
		"query", query,
		"terms", len(plan.Terms),
		"documents", len(docs),
		"matched", len(results),
		"latency", time.Since(start),
	)
	return results, nil
}

// SearchStored matches query against every stored document of the query
// locale. Stores implementing store.Prefilter narrow the set to documents
// that share an n-gram with every term; other stores must implement
// store.Catalog.
func (e *Engine) SearchStored(ctx context.Context, query string, qo QueryOptions) ([]SearchResult, error) {
	locale := e.locale(qo.Locale)
	plan := parser.Parse(query, locale, e.analyzer)
	if plan.Empty() {
		return []SearchResult{}, nil
	}
	var ids []string
	var err error
	switch s := e.store.(type) {
	case store.Prefilter:
		grams := make([][]string, len(plan.Terms))
		for i, t := range plan.Terms {
			grams[i] = index.NGrams(t, e.builder.NGramSize())
		}
		ids, err = s.Candidates(ctx, locale, grams)
	case store.Catalog:
		ids, err = s.Documents(ctx, locale)
	default:
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"the configured store cannot list documents; pass documents explicitly")
	}
	if err != nil {
		return nil, e.wrap(err)
	}
	if e.opts.MaxDocuments > 0 && len(ids) > e.opts.MaxDocuments {
		e.logger.Warn("stored document set truncated",
			"documents", len(ids),
			"max", e.opts.MaxDocuments,
		)
		ids = ids[:e.opts.MaxDocuments]
	}
	docs := make([]Document, len(ids))
	for i, id := range ids {
		docs[i] = Document{ID: id}
	}
	return e.Search(ctx, docs, query, qo)
}

func (e *Engine) source(doc Document, locale string) matcher.Source {
	switch {
	case doc.Index != nil:
		return matcher.FromIndex(doc.Index)
	case doc.Text != "":
		return matcher.FromIndex(e.builder.Build(doc.Text, locale))
	case doc.ID != "":
		return store.NewSource(e.store, doc.ID, locale)
	default:
		return matcher.FromIndex(nil)
	}
}

func (e *Engine) wrap(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.New(apperrors.ErrTimeout, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, apperrors.ErrStore):
		return err
	default:
		return apperrors.StoreError("search", err)
	}
}

func (e *Engine) observe(qo QueryOptions, start time.Time, matched int, err error) {
	if e.metrics == nil {
		return
	}
	mode := "fuzzy"
	if qo.Exact {
		mode = "exact"
	}
	outcome := "match"
	switch {
	case err != nil:
		outcome = "error"
	case matched == 0:
		outcome = "zero_result"
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	e.metrics.SearchLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err == nil {
		e.metrics.SearchResultsCount.Observe(float64(matched))
	}
}
