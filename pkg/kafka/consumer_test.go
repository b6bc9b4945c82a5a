package kafka

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/resilience"
	"github.com/segmentio/kafka-go"
)

// memReader serves a fixed partition and cancels the consumer once drained.
type memReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	next      int
	committed []int64
	drained   context.CancelFunc
	closed    bool
}

func newMemReader(drained context.CancelFunc, offsets ...int64) *memReader {
	r := &memReader{drained: drained}
	for _, off := range offsets {
		r.messages = append(r.messages, kafka.Message{
			Offset: off,
			Key:    []byte(fmt.Sprintf("doc-%d", off)),
			Value:  []byte(`{}`),
		})
	}
	return r
}

func (r *memReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if r.next < len(r.messages) {
		msg := r.messages[r.next]
		r.next++
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	r.drained()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *memReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *memReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

var fastRetry = resilience.RetryConfig{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     time.Millisecond,
}

func TestConsumerCommitsHandledMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newMemReader(cancel, 5, 6)

	var calls []string
	c := newConsumer(r, "ingest", func(_ context.Context, key, _ []byte) error {
		calls = append(calls, string(key))
		return nil
	}, fastRetry)

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if want := []int64{5, 6}; !reflect.DeepEqual(r.committed, want) {
		t.Fatalf("committed = %v, want %v", r.committed, want)
	}
	if want := []string{"doc-5", "doc-6"}; !reflect.DeepEqual(calls, want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	if !r.closed {
		t.Fatal("reader not closed")
	}
}

func TestConsumerRetriesTransientFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newMemReader(cancel, 5, 6)

	attempts := 0
	c := newConsumer(r, "ingest", func(_ context.Context, key, _ []byte) error {
		if string(key) == "doc-5" {
			attempts++
			if attempts < 3 {
				return errors.New("store unavailable")
			}
		}
		return nil
	}, fastRetry)

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("doc-5 handled %d times, want 3", attempts)
	}
	if want := []int64{5, 6}; !reflect.DeepEqual(r.committed, want) {
		t.Fatalf("committed = %v, want %v", r.committed, want)
	}
}

func TestConsumerStopsOnPersistentFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newMemReader(cancel, 5, 6)

	storeDown := errors.New("store unavailable")
	var later bool
	c := newConsumer(r, "ingest", func(_ context.Context, key, _ []byte) error {
		if string(key) == "doc-5" {
			return storeDown
		}
		later = true
		return nil
	}, fastRetry)

	err := c.Start(ctx)
	if !errors.Is(err, storeDown) {
		t.Fatalf("Start = %v, want %v", err, storeDown)
	}
	if len(r.committed) != 0 {
		t.Fatalf("committed %v past a failed message", r.committed)
	}
	if later {
		t.Fatal("handled a later message after a failure")
	}
}

func TestConsumerCommitsSkippedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newMemReader(cancel, 5, 6)

	calls := 0
	c := newConsumer(r, "ingest", func(_ context.Context, key, _ []byte) error {
		calls++
		if string(key) == "doc-5" {
			return fmt.Errorf("%w: bad payload", ErrSkip)
		}
		return nil
	}, fastRetry)

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if calls != 2 {
		t.Fatalf("handler called %d times, want 2 (no retry of skipped messages)", calls)
	}
	if want := []int64{5, 6}; !reflect.DeepEqual(r.committed, want) {
		t.Fatalf("committed = %v, want %v", r.committed, want)
	}
}
