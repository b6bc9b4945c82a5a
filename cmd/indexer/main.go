package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/store"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/redis"
)

const indexTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer service", "store", cfg.Store.Backend)
	if cfg.Store.Backend == config.BackendMemory {
		slog.Warn("memory store is private to this process; searches will not see indexed documents")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdownMetrics := m.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	backend, err := store.Open(ctx, cfg, m)
	if err != nil {
		slog.Error("failed to open index store", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	engine, err := searcher.New(searcher.OptionsFromConfig(cfg.Search), backend.Store)
	if err != nil {
		slog.Error("failed to create search engine", "error", err)
		os.Exit(1)
	}
	engine.WithMetrics(m)

	var indexer consumer.Indexer = engine
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, cached searches expire with their TTL", "error", err)
	} else {
		defer redisClient.Close()
		indexer = consumer.InvalidateAfter(engine, cache.New(redisClient, cfg.Redis.CacheTTL, m))
	}

	kafkaConsumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.DocumentIngest,
		consumer.HandleMessage(indexer, indexTimeout),
	)
	indexConsumer := consumer.New(kafkaConsumer)

	slog.Info("indexer service ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.DocumentIngest,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := indexConsumer.Start(ctx); err != nil {
		// The failed event is uncommitted; a restart resumes from it.
		slog.Error("consumer stopped", "error", err)
		if redisClient != nil {
			redisClient.Close()
		}
		backend.Close()
		os.Exit(1)
	}

	slog.Info("indexer service stopped")
}
