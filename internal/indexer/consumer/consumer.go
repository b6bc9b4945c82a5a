// Package consumer reads ingest events from Kafka and builds and stores the
// n-gram index of each document.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/resilience"
)

// Indexer is implemented by searcher.Engine.
type Indexer interface {
	BuildIndex(ctx context.Context, text, docID, locale string) (index.Index, error)
}

// Invalidator drops cached search results. It is implemented by
// cache.QueryCache.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type invalidating struct {
	Indexer
	cache  Invalidator
	logger *slog.Logger
}

// InvalidateAfter returns an Indexer that invalidates c after every document
// it stores, so cached searches see the new document. A failed invalidation
// is logged and leaves the document indexed; cached entries then expire with
// their TTL.
func InvalidateAfter(idx Indexer, c Invalidator) Indexer {
	return &invalidating{
		Indexer: idx,
		cache:   c,
		logger:  slog.Default().With("component", "index-consumer"),
	}
}

func (i *invalidating) BuildIndex(ctx context.Context, text, docID, locale string) (index.Index, error) {
	idx, err := i.Indexer.BuildIndex(ctx, text, docID, locale)
	if err != nil {
		return nil, err
	}
	if err := i.cache.Invalidate(ctx); err != nil {
		i.logger.Warn("query cache invalidation failed", "doc_id", docID, "error", err)
	}
	return idx, nil
}

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that indexes every ingest
// event. Each event gets at most timeout to be stored; a zero timeout means
// no limit. Undecodable events and events without a document ID are skipped.
func HandleMessage(indexer Indexer, timeout time.Duration) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			return err
		}
		if event.DocumentID == "" {
			return fmt.Errorf("%w: ingest event without document id (key %q)", kafka.ErrSkip, key)
		}
		logger.Debug("processing ingest event",
			"doc_id", event.DocumentID,
			"locale", event.Locale,
		)

		var idx index.Index
		err = resilience.WithTimeout(ctx, timeout, "index "+event.DocumentID, func(ctx context.Context) error {
			var err error
			idx, err = indexer.BuildIndex(ctx, event.Text, event.DocumentID, event.Locale)
			return err
		})
		if err != nil {
			return fmt.Errorf("indexing document %s: %w", event.DocumentID, err)
		}

		logger.Info("document indexed",
			"doc_id", event.DocumentID,
			"keys", len(idx),
			"lag", time.Since(event.IngestedAt).Round(time.Millisecond),
		)
		return nil
	}
}
