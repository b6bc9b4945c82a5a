// Package ingestion defines the request/response types and Kafka event schema
// used to feed documents to the indexer.
package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// IngestRequest is the JSON body accepted by the ingestion HTTP endpoint.
// An empty ID is derived from the locale and text.
type IngestRequest struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Locale string `json:"locale"`
}

// IngestResponse is returned to the caller after a document is accepted.
type IngestResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

// IngestEvent is the Kafka message payload consumed by the indexer.
type IngestEvent struct {
	DocumentID string    `json:"document_id"`
	Text       string    `json:"text"`
	Locale     string    `json:"locale,omitempty"`
	IngestedAt time.Time `json:"ingested_at"`
}

// PartitionKey keys events by document, so the versions of a document are
// indexed in the order they were ingested.
func (e IngestEvent) PartitionKey() string {
	return e.DocumentID
}

// ContentID returns a stable document ID for text in locale.
func ContentID(text, locale string) string {
	sum := sha256.Sum256([]byte(locale + "\x00" + text))
	return hex.EncodeToString(sum[:12])
}
