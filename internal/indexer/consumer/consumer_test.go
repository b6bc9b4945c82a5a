package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/kafka"
)

type call struct {
	text, docID, locale string
	deadline            bool
}

type fakeIndexer struct {
	calls []call
	err   error
	block bool
}

func (f *fakeIndexer) BuildIndex(ctx context.Context, text, docID, locale string) (index.Index, error) {
	_, hasDeadline := ctx.Deadline()
	f.calls = append(f.calls, call{text: text, docID: docID, locale: locale, deadline: hasDeadline})
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return index.Index{"ab": {{Order: 0, Word: "ab", Length: 2}}}, nil
}

func encode(t *testing.T, ev ingestion.IngestEvent) []byte {
	t.Helper()
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestHandleMessageIndexesEvent(t *testing.T) {
	f := &fakeIndexer{}
	h := HandleMessage(f, time.Second)
	ev := ingestion.IngestEvent{DocumentID: "doc-1", Text: "ab", Locale: "en", IngestedAt: time.Now()}

	if err := h(context.Background(), []byte("doc-1"), encode(t, ev)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(f.calls) != 1 {
		t.Fatalf("BuildIndex called %d times", len(f.calls))
	}
	c := f.calls[0]
	if c.docID != "doc-1" || c.text != "ab" || c.locale != "en" || !c.deadline {
		t.Fatalf("call = %+v", c)
	}
}

func TestHandleMessageSkipsPoisonMessages(t *testing.T) {
	f := &fakeIndexer{}
	h := HandleMessage(f, 0)

	if err := h(context.Background(), nil, []byte("{not json")); !errors.Is(err, kafka.ErrSkip) {
		t.Fatalf("undecodable: err = %v, want ErrSkip", err)
	}
	if err := h(context.Background(), nil, encode(t, ingestion.IngestEvent{Text: "x"})); !errors.Is(err, kafka.ErrSkip) {
		t.Fatalf("no id: err = %v, want ErrSkip", err)
	}
	if len(f.calls) != 0 {
		t.Fatal("skipped messages reached the indexer")
	}
}

func TestHandleMessageRetriesStoreFailures(t *testing.T) {
	boom := errors.New("store unavailable")
	h := HandleMessage(&fakeIndexer{err: boom}, 0)
	err := h(context.Background(), nil, encode(t, ingestion.IngestEvent{DocumentID: "d", Text: "x"}))
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if errors.Is(err, kafka.ErrSkip) {
		t.Fatal("store failures must be left for redelivery")
	}
}

func TestHandleMessageTimeout(t *testing.T) {
	h := HandleMessage(&fakeIndexer{block: true}, 20*time.Millisecond)
	err := h(context.Background(), nil, encode(t, ingestion.IngestEvent{DocumentID: "d", Text: "x"}))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

type countingCache struct {
	calls int
	err   error
}

func (c *countingCache) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

func TestInvalidateAfterIndexedDocument(t *testing.T) {
	f := &fakeIndexer{}
	c := &countingCache{}
	h := HandleMessage(InvalidateAfter(f, c), time.Second)

	ev := ingestion.IngestEvent{DocumentID: "doc-1", Text: "ab", Locale: "en"}
	if err := h(context.Background(), nil, encode(t, ev)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(f.calls) != 1 || c.calls != 1 {
		t.Fatalf("indexed %d, invalidated %d; want 1 and 1", len(f.calls), c.calls)
	}
}

func TestInvalidateAfterSkipsFailedIndexing(t *testing.T) {
	f := &fakeIndexer{err: errors.New("store down")}
	c := &countingCache{}
	idx := InvalidateAfter(f, c)

	if _, err := idx.BuildIndex(context.Background(), "ab", "doc-1", "en"); err == nil {
		t.Fatal("expected indexing error")
	}
	if c.calls != 0 {
		t.Fatalf("invalidated %d times after failed indexing", c.calls)
	}
}

func TestInvalidateAfterToleratesCacheFailure(t *testing.T) {
	f := &fakeIndexer{}
	c := &countingCache{err: errors.New("redis down")}
	idx := InvalidateAfter(f, c)

	got, err := idx.BuildIndex(context.Background(), "ab", "doc-1", "en")
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	if len(got) != 1 || c.calls != 1 {
		t.Fatalf("index = %v, invalidations = %d", got, c.calls)
	}
}
