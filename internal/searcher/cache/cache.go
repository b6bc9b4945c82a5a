// Package cache memoizes search results in Redis. Concurrent identical
// searches are collapsed with singleflight so only one of them runs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "fsq:"

// DefaultComputeTimeout bounds a shared search computation.
const DefaultComputeTimeout = 30 * time.Second

// Backend is the subset of the Redis client the cache needs.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Request identifies a search for caching purposes.
type Request struct {
	Query     string
	Documents []searcher.Document
	Options   searcher.QueryOptions
}

type QueryCache struct {
	backend        Backend
	ttl            time.Duration
	computeTimeout time.Duration
	group          singleflight.Group
	metrics        *metrics.Metrics
	logger         *slog.Logger
	hits           atomic.Int64
	misses         atomic.Int64
}

func New(backend Backend, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		backend:        backend,
		ttl:            ttl,
		computeTimeout: DefaultComputeTimeout,
		metrics:        m,
		logger:         slog.Default().With("component", "query-cache"),
	}
}

// WithComputeTimeout sets the bound on a shared computation. Non-positive
// values are ignored.
func (c *QueryCache) WithComputeTimeout(d time.Duration) *QueryCache {
	if d > 0 {
		c.computeTimeout = d
	}
	return c
}

func (c *QueryCache) Get(ctx context.Context, req Request) ([]searcher.SearchResult, bool) {
	key := BuildKey(req)
	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var results []searcher.SearchResult
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	c.logger.Debug("cache hit", "query", req.Query, "key", key)
	return results, true
}

func (c *QueryCache) Set(ctx context.Context, req Request, results []searcher.SearchResult) {
	key := BuildKey(req)
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns cached results for req or runs compute once for all
// concurrent callers with the same key. The second return value reports a
// cache hit.
//
// compute runs detached from any single caller's cancellation, bounded by
// the compute timeout. A caller whose ctx ends stops waiting and gets its
// context error; the others still receive the shared result.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	req Request,
	compute func(ctx context.Context) ([]searcher.SearchResult, error),
) ([]searcher.SearchResult, bool, error) {
	if results, ok := c.Get(ctx, req); ok {
		return results, true, nil
	}
	key := BuildKey(req)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.computeTimeout)
		defer cancel()
		results, err := compute(cctx)
		if err != nil {
			return nil, err
		}
		c.Set(cctx, req, results)
		return results, nil
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]searcher.SearchResult), false, nil
	}
}

func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.backend.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// BuildKey hashes everything that influences the result of a search. An
// empty document list stands for the stored document set.
func BuildKey(req Request) string {
	h := sha256.New()
	writeField(h, req.Query)
	writeField(h, req.Options.Locale)
	writeField(h, strconv.FormatBool(req.Options.Exact))
	writeField(h, strconv.FormatBool(req.Options.Consecutive))
	writeField(h, strconv.Itoa(req.Options.Limit))
	for _, d := range req.Documents {
		writeField(h, d.ID)
		writeField(h, d.Text)
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil)[:16])
}

func writeField(h hash.Hash, s string) {
	h.Write([]byte(strconv.Itoa(len(s))))
	h.Write([]byte{':'})
	h.Write([]byte(s))
}
