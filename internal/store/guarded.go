package store

import (
	"context"
	"errors"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/resilience"
)

// Remote is a network backend that can also list its documents.
type Remote interface {
	Store
	Catalog
}

// Guarded puts a circuit breaker in front of a remote backend and counts
// its operations. When the breaker is open calls fail fast with ErrStore.
type Guarded struct {
	inner   Remote
	backend string
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
}

// NewGuarded wraps inner. m may be nil.
func NewGuarded(inner Remote, backend string, cfg resilience.CircuitBreakerConfig, m *metrics.Metrics) *Guarded {
	if m != nil {
		m.StoreCircuitState.WithLabelValues(backend).Set(float64(resilience.StateClosed))
		cfg.OnStateChange = func(name string, _, to resilience.State) {
			m.StoreCircuitState.WithLabelValues(name).Set(float64(to))
		}
	}
	return &Guarded{
		inner:   inner,
		backend: backend,
		breaker: resilience.NewCircuitBreaker(backend, cfg),
		metrics: m,
	}
}

func (g *Guarded) ReadIndex(ctx context.Context, docID, key, locale string) (Lookup, error) {
	var lk Lookup
	err := g.call(ctx, "read", func(ctx context.Context) error {
		var err error
		lk, err = g.inner.ReadIndex(ctx, docID, key, locale)
		return err
	})
	return lk, err
}

func (g *Guarded) StoreIndex(ctx context.Context, docID string, idx index.Index, locale string) error {
	return g.call(ctx, "write", func(ctx context.Context) error {
		return g.inner.StoreIndex(ctx, docID, idx, locale)
	})
}

func (g *Guarded) Documents(ctx context.Context, locale string) ([]string, error) {
	var ids []string
	err := g.call(ctx, "list", func(ctx context.Context) error {
		var err error
		ids, err = g.inner.Documents(ctx, locale)
		return err
	})
	return ids, err
}

// State reports the breaker state.
func (g *Guarded) State() resilience.State {
	return g.breaker.State()
}

func (g *Guarded) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := g.breaker.ExecuteContext(ctx, fn)
	if g.metrics != nil {
		status := "success"
		switch {
		case errors.Is(err, resilience.ErrCircuitOpen):
			status = "rejected"
		case err != nil:
			status = "error"
		}
		g.metrics.StoreOpsTotal.WithLabelValues(g.backend, op, status).Inc()
	}
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return apperrors.StoreError(g.backend+" "+op, err)
	}
	return err
}
