// Package integration wires the ingestion, indexer and searcher components
// together in one process. Kafka is replaced by an in-memory event log; the
// rest is the production code path.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/ingestion"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/searcher"
	searchhandler "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/store"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/middleware"
)

type message struct {
	key, value []byte
}

// eventLog stands in for the document-ingest topic.
type eventLog struct {
	mu       sync.Mutex
	messages []message
}

func (l *eventLog) Publish(_ context.Context, events ...ingestion.IngestEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return err
		}
		l.messages = append(l.messages, message{key: []byte(e.PartitionKey()), value: value})
	}
	return nil
}

func (l *eventLog) drain(t *testing.T, h kafka.MessageHandler) {
	t.Helper()
	l.mu.Lock()
	msgs := l.messages
	l.messages = nil
	l.mu.Unlock()
	for _, m := range msgs {
		if err := h(context.Background(), m.key, m.value); err != nil {
			t.Fatalf("indexing message %s: %v", m.key, err)
		}
	}
}

type platform struct {
	log       *eventLog
	index     kafka.MessageHandler
	ingestion *httptest.Server
	search    *httptest.Server
}

func newPlatform(t *testing.T, st store.Store) *platform {
	t.Helper()
	engine, err := searcher.New(searcher.DefaultOptions(), st)
	if err != nil {
		t.Fatalf("searcher.New: %v", err)
	}

	log := &eventLog{}
	ingestMux := http.NewServeMux()
	ingesthandler.New(publisher.New(log)).Routes(ingestMux)
	ingestSrv := httptest.NewServer(middleware.Chain(ingestMux, middleware.RequestID))
	t.Cleanup(ingestSrv.Close)

	searchMux := http.NewServeMux()
	searchhandler.New(engine, nil, 20).Routes(searchMux)
	search := httptest.NewServer(middleware.Chain(searchMux, middleware.RequestID))
	t.Cleanup(search.Close)

	return &platform{
		log:       log,
		index:     consumer.HandleMessage(engine, 0),
		ingestion: ingestSrv,
		search:    search,
	}
}

func postJSON(t *testing.T, url string, body any, wantStatus int) []byte {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("encoding: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	_, _ = out.ReadFrom(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s: status %d, want %d: %s", url, resp.StatusCode, wantStatus, out.String())
	}
	if resp.Header.Get(middleware.RequestIDHeader) == "" {
		t.Fatalf("POST %s: response carries no request id", url)
	}
	return out.Bytes()
}

func (p *platform) searchIDs(t *testing.T, query string, extra map[string]any) []string {
	t.Helper()
	body := map[string]any{"query": query}
	for k, v := range extra {
		body[k] = v
	}
	var resp searchhandler.SearchResponse
	if err := json.Unmarshal(postJSON(t, p.search.URL+"/api/v1/search", body, http.StatusOK), &resp); err != nil {
		t.Fatalf("decoding search response: %v", err)
	}
	ids := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		ids[i] = r.Document.ID
	}
	return ids
}

func TestIngestIndexSearch(t *testing.T) {
	for _, tc := range []struct {
		name  string
		store func(t *testing.T) store.Store
	}{
		{"memory", func(*testing.T) store.Store { return store.NewMemory() }},
		{"file", func(t *testing.T) store.Store {
			fs, err := store.NewFile(t.TempDir())
			if err != nil {
				t.Fatalf("NewFile: %v", err)
			}
			t.Cleanup(func() { fs.Close() })
			return fs
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := newPlatform(t, tc.store(t))

			postJSON(t, p.ingestion.URL+"/api/v1/documents",
				map[string]string{"id": "fox", "text": "The quick brown fox jumps over the lazy dog"},
				http.StatusAccepted)
			postJSON(t, p.ingestion.URL+"/api/v1/documents/batch", map[string]any{
				"documents": []map[string]string{
					{"id": "cat", "text": "A quick cat naps"},
					{"id": "bonjour", "text": "Le renard brun rapide", "locale": "fr"},
				},
			}, http.StatusAccepted)

			if got := p.searchIDs(t, "quikc", nil); len(got) != 0 {
				t.Fatalf("documents searchable before indexing: %v", got)
			}

			p.log.drain(t, p.index)

			got := p.searchIDs(t, "quikc", nil)
			if len(got) != 2 || got[0] != "cat" && got[0] != "fox" {
				t.Fatalf("search(quikc) = %v", got)
			}
			if got := p.searchIDs(t, "brwn foxx", nil); len(got) != 1 || got[0] != "fox" {
				t.Fatalf("search(brwn foxx) = %v", got)
			}
			if got := p.searchIDs(t, "lazy fox", nil); len(got) != 0 {
				t.Fatalf("out-of-order terms matched: %v", got)
			}
			if got := p.searchIDs(t, "renard", map[string]any{"locale": "fr"}); len(got) != 1 || got[0] != "bonjour" {
				t.Fatalf("search(renard, fr) = %v", got)
			}
			if got := p.searchIDs(t, "quick", map[string]any{"exact": true, "limit": 1}); len(got) != 1 {
				t.Fatalf("limited search = %v", got)
			}
		})
	}
}

func TestReingestReplacesDocument(t *testing.T) {
	p := newPlatform(t, store.NewMemory())
	postJSON(t, p.ingestion.URL+"/api/v1/documents",
		map[string]string{"id": "doc", "text": "apple orchard"}, http.StatusAccepted)
	p.log.drain(t, p.index)
	postJSON(t, p.ingestion.URL+"/api/v1/documents",
		map[string]string{"id": "doc", "text": "banana plantation"}, http.StatusAccepted)
	p.log.drain(t, p.index)

	if got := p.searchIDs(t, "orchard", nil); len(got) != 0 {
		t.Fatalf("old version still searchable: %v", got)
	}
	if got := p.searchIDs(t, "plantaton", nil); len(got) != 1 {
		t.Fatalf("new version not searchable: %v", got)
	}
}
