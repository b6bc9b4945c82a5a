package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/resilience"
)

// Backend is an opened store together with its lifecycle hooks.
type Backend struct {
	Store Store
	// Ping checks that the backend is reachable.
	Ping  func(ctx context.Context) error
	Close func() error
}

// Open connects the backend selected by cfg.Store. Remote backends are
// retried while they come up and guarded by a circuit breaker afterwards.
func Open(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Backend, error) {
	logger := slog.Default().With("component", "store", "backend", cfg.Store.Backend)
	noop := func() error { return nil }
	up := func(context.Context) error { return nil }

	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Info("using in-memory index store")
		return &Backend{Store: NewMemory(), Ping: up, Close: noop}, nil

	case config.BackendFile:
		fs, err := NewFile(cfg.Store.DataDir)
		if err != nil {
			return nil, err
		}
		logger.Info("using segment file index store", "data_dir", cfg.Store.DataDir)
		return &Backend{Store: fs, Ping: up, Close: fs.Close}, nil

	case config.BackendRedis:
		var client *pkgredis.Client
		err := resilience.Retry(ctx, "redis connect", resilience.RetryConfig{}, func(context.Context) error {
			var err error
			client, err = pkgredis.NewClient(cfg.Redis)
			return err
		})
		if err != nil {
			return nil, err
		}
		logger.Info("using redis index store", "addr", cfg.Redis.Addr)
		return &Backend{
			Store: NewGuarded(NewRedis(client), config.BackendRedis, resilience.CircuitBreakerConfig{}, m),
			Ping:  client.Ping,
			Close: client.Close,
		}, nil

	case config.BackendPostgres:
		var client *postgres.Client
		err := resilience.Retry(ctx, "postgres connect", resilience.RetryConfig{}, func(context.Context) error {
			var err error
			client, err = postgres.New(cfg.Postgres)
			return err
		})
		if err != nil {
			return nil, err
		}
		pg := NewPostgres(client)
		if err := pg.EnsureSchema(ctx); err != nil {
			client.Close()
			return nil, err
		}
		logger.Info("using postgres index store", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		return &Backend{
			Store: NewGuarded(pg, config.BackendPostgres, resilience.CircuitBreakerConfig{}, m),
			Ping:  client.Ping,
			Close: client.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
