// Package handler exposes the search engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/searcher/cache"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/logger"
)

const maxBodyBytes = 8 << 20

// SearchEngine is the part of searcher.Engine the handler drives.
type SearchEngine interface {
	Search(ctx context.Context, docs []searcher.Document, query string, qo searcher.QueryOptions) ([]searcher.SearchResult, error)
	SearchStored(ctx context.Context, query string, qo searcher.QueryOptions) ([]searcher.SearchResult, error)
	BuildIndex(ctx context.Context, text, docID, locale string) (index.Index, error)
}

// SearchRequest is the body of POST /api/v1/search. Without documents the
// stored document set is searched.
type SearchRequest struct {
	Query       string              `json:"query"`
	Documents   []searcher.Document `json:"documents"`
	Exact       bool                `json:"exact"`
	Consecutive bool                `json:"consecutive"`
	Locale      string              `json:"locale"`
	Limit       int                 `json:"limit"`
}

type SearchResponse struct {
	Query     string                  `json:"query"`
	Total     int                     `json:"total"`
	Results   []searcher.SearchResult `json:"results"`
	CacheHit  bool                    `json:"cache_hit"`
	LatencyMs int64                   `json:"latency_ms"`
}

// IndexRequest is the body of POST /api/v1/index.
type IndexRequest struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Locale string `json:"locale"`
}

type IndexResponse struct {
	ID    string `json:"id"`
	Keys  int    `json:"keys"`
	Words int    `json:"words"`
}

type Handler struct {
	engine       SearchEngine
	cache        *cache.QueryCache
	defaultLimit int
	logger       *slog.Logger
}

// New creates a Handler. queryCache may be nil.
func New(engine SearchEngine, queryCache *cache.QueryCache, defaultLimit int) *Handler {
	return &Handler{
		engine:       engine,
		cache:        queryCache,
		defaultLimit: defaultLimit,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Routes registers the handler's endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/index", h.Index)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req SearchRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Limit < 0 {
		h.writeError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}
	if req.Limit == 0 {
		req.Limit = h.defaultLimit
	}
	qo := searcher.QueryOptions{
		Exact:       req.Exact,
		Consecutive: req.Consecutive,
		Locale:      req.Locale,
		Limit:       req.Limit,
	}
	compute := func(ctx context.Context) ([]searcher.SearchResult, error) {
		if len(req.Documents) == 0 {
			return h.engine.SearchStored(ctx, req.Query, qo)
		}
		return h.engine.Search(ctx, req.Documents, req.Query, qo)
	}

	var results []searcher.SearchResult
	var err error
	cacheHit := false
	if h.cache != nil {
		results, cacheHit, err = h.cache.GetOrCompute(ctx, cache.Request{
			Query:     req.Query,
			Documents: req.Documents,
			Options:   qo,
		}, compute)
	} else {
		results, err = compute(ctx)
	}
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("search failed", "query", req.Query, "error", err, "status_code", status)
		h.writeError(w, status, publicMessage(err, "search failed"))
		return
	}

	latencyMs := time.Since(start).Milliseconds()
	log.Info("search completed",
		"query", req.Query,
		"documents", len(req.Documents),
		"returned", len(results),
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)
	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:     req.Query,
		Total:     len(results),
		Results:   results,
		CacheHit:  cacheHit,
		LatencyMs: latencyMs,
	})
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req IndexRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		h.writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	idx, err := h.engine.BuildIndex(ctx, req.Text, req.ID, req.Locale)
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("indexing failed", "doc_id", req.ID, "error", err, "status_code", status)
		h.writeError(w, status, publicMessage(err, "indexing failed"))
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			log.Warn("cache invalidation after index failed", "error", err)
		}
	}
	log.Info("document indexed", "doc_id", req.ID, "keys", len(idx))
	h.writeJSON(w, http.StatusCreated, IndexResponse{
		ID:    req.ID,
		Keys:  len(idx),
		Words: idx.WordCount(),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}

// publicMessage returns the AppError message for client errors and fallback
// otherwise.
func publicMessage(err error, fallback string) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.StatusCode < http.StatusInternalServerError {
		return appErr.Message
	}
	return fallback
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
