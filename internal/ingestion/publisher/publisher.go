// Package publisher turns accepted ingestion requests into Kafka events for
// the indexer.
package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/errors"
)

// EventWriter is implemented by *kafka.Producer[ingestion.IngestEvent].
type EventWriter interface {
	Publish(ctx context.Context, events ...ingestion.IngestEvent) error
}

// Publisher turns ingestion requests into ingest events.
type Publisher struct {
	producer EventWriter
	now      func() time.Time
	logger   *slog.Logger
}

func New(producer EventWriter) *Publisher {
	return &Publisher{
		producer: producer,
		now:      time.Now,
		logger:   slog.Default().With("component", "publisher"),
	}
}

// Ingest publishes req. The returned response carries the document ID,
// derived from the content when req has none.
func (p *Publisher) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	event := p.event(req)
	if err := p.producer.Publish(ctx, event); err != nil {
		return nil, apperrors.Newf(apperrors.ErrInternal, 503, "publishing document %s: %v", event.DocumentID, err)
	}
	p.logger.Debug("ingest event published", "doc_id", event.DocumentID, "locale", req.Locale)
	return &ingestion.IngestResponse{
		DocumentID: event.DocumentID,
		Status:     "queued",
	}, nil
}

// IngestBatch publishes all requests in one Kafka write.
func (p *Publisher) IngestBatch(ctx context.Context, reqs []ingestion.IngestRequest) ([]ingestion.IngestResponse, error) {
	events := make([]ingestion.IngestEvent, len(reqs))
	resps := make([]ingestion.IngestResponse, len(reqs))
	for i := range reqs {
		events[i] = p.event(&reqs[i])
		resps[i] = ingestion.IngestResponse{DocumentID: events[i].DocumentID, Status: "queued"}
	}
	if err := p.producer.Publish(ctx, events...); err != nil {
		return nil, apperrors.Newf(apperrors.ErrInternal, 503, "publishing %d documents: %v", len(reqs), err)
	}
	p.logger.Debug("ingest batch published", "count", len(events))
	return resps, nil
}

func (p *Publisher) event(req *ingestion.IngestRequest) ingestion.IngestEvent {
	docID := req.ID
	if docID == "" {
		docID = ingestion.ContentID(req.Text, req.Locale)
	}
	return ingestion.IngestEvent{
		DocumentID: docID,
		Text:       req.Text,
		Locale:     req.Locale,
		IngestedAt: p.now().UTC(),
	}
}
