package store

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
)

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	defer fs.Close()

	idx := buildIndex(t, "Hello, World hello")
	if err := fs.StoreIndex(ctx, "greeting", idx, "en"); err != nil {
		t.Fatalf("StoreIndex: %v", err)
	}

	for key, want := range idx {
		lk, err := fs.ReadIndex(ctx, "greeting", key, "en")
		if err != nil {
			t.Fatalf("ReadIndex(%s): %v", key, err)
		}
		if !reflect.DeepEqual(lk.Postings, want) {
			t.Fatalf("ReadIndex(%s) = %+v, want %+v", key, lk.Postings, want)
		}
	}

	lk, err := fs.ReadIndex(ctx, "greeting", "zz", "en")
	if err != nil || len(lk.Postings) != 0 {
		t.Fatalf("ReadIndex(zz) = %+v, %v", lk, err)
	}

	loaded, err := fs.Load("greeting", "en")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded, idx) {
		t.Fatal("Load did not return the stored index")
	}
}

func TestFileMissingDocument(t *testing.T) {
	fs, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	defer fs.Close()

	lk, err := fs.ReadIndex(context.Background(), "nope", "he", "")
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if lk.Index != nil || lk.Postings != nil {
		t.Fatalf("ReadIndex = %+v, want empty", lk)
	}
	idx, err := fs.Load("nope", "")
	if err != nil || idx != nil {
		t.Fatalf("Load = %v, %v", idx, err)
	}
}

func TestFileReplaceServesNewIndex(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	defer fs.Close()

	_ = fs.StoreIndex(ctx, "d1", buildIndex(t, "apple"), "")
	if lk, _ := fs.ReadIndex(ctx, "d1", "ap", ""); len(lk.Postings) != 1 {
		t.Fatalf("expected postings for ap, got %+v", lk)
	}
	if err := fs.StoreIndex(ctx, "d1", buildIndex(t, "banana"), ""); err != nil {
		t.Fatalf("StoreIndex: %v", err)
	}
	if lk, _ := fs.ReadIndex(ctx, "d1", "ap", ""); len(lk.Postings) != 0 {
		t.Fatalf("stale postings served after replace: %+v", lk)
	}
	if lk, _ := fs.ReadIndex(ctx, "d1", "an", ""); len(lk.Postings) != 1 {
		t.Fatalf("expected postings for an, got %+v", lk)
	}
}

func TestFileDocumentsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	_ = fs.StoreIndex(ctx, "b", buildIndex(t, "second"), "en")
	_ = fs.StoreIndex(ctx, "a", buildIndex(t, "first"), "en")
	_ = fs.StoreIndex(ctx, "c", buildIndex(t, "dritte"), "de")
	if err := fs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	defer reopened.Close()

	ids, err := reopened.Documents(ctx, "en")
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("Documents(en) = %v, want %v", ids, want)
	}
	ids, _ = reopened.Documents(ctx, "de")
	if want := []string{"c"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("Documents(de) = %v, want %v", ids, want)
	}
}

func TestFileReadsDuringReindex(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	defer fs.Close()

	idx := buildIndex(t, "the quick brown fox")
	if err := fs.StoreIndex(ctx, "d1", idx, ""); err != nil {
		t.Fatalf("StoreIndex: %v", err)
	}

	var (
		wg       sync.WaitGroup
		stop     atomic.Bool
		mu       sync.Mutex
		failures int
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if failures == 0 {
			firstErr = err
		}
		failures++
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				lk, err := fs.ReadIndex(ctx, "d1", "qu", "")
				if err == nil && len(lk.Postings) == 0 {
					err = errors.New("no postings for qu")
				}
				if err != nil {
					fail(err)
				}
				if _, err := fs.Load("d1", ""); err != nil {
					fail(err)
				}
			}
		}()
	}
	for i := 0; i < 200; i++ {
		if err := fs.StoreIndex(ctx, "d1", idx, ""); err != nil {
			t.Fatalf("StoreIndex #%d: %v", i, err)
		}
	}
	stop.Store(true)
	wg.Wait()

	if failures > 0 {
		t.Fatalf("%d reads failed while re-indexing, first: %v", failures, firstErr)
	}
}
