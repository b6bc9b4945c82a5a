package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errFail = errors.New("fail")

func fail() error    { return errFail }
func succeed() error { return nil }

func TestCircuitBreakerTripsAndRecovers(t *testing.T) {
	now := time.Unix(1000, 0)
	var transitions []State
	var mu sync.Mutex
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{
		FailureThreshold: 3,
		ResetTimeout:     10 * time.Second,
		OnStateChange: func(_ string, _, to State) {
			mu.Lock()
			transitions = append(transitions, to)
			mu.Unlock()
		},
	})
	cb.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if err := cb.Execute(fail); !errors.Is(err, errFail) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}
	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("open breaker let a call through: %v", err)
	}

	now = now.Add(11 * time.Second)
	if err := cb.Execute(succeed); err != nil {
		t.Fatalf("half-open call: %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}
	want := []State{StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", transitions, want)
		}
	}
}

func TestCircuitBreakerFailedTrialReopens(t *testing.T) {
	now := time.Unix(1000, 0)
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Second})
	cb.now = func() time.Time { return now }

	_ = cb.Execute(fail)
	now = now.Add(2 * time.Second)
	_ = cb.Execute(fail)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}
	if err := cb.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 2})
	_ = cb.Execute(fail)
	_ = cb.Execute(succeed)
	_ = cb.Execute(fail)
	if cb.State() != StateClosed {
		t.Fatal("non-consecutive failures tripped the breaker")
	}
}

func TestCircuitBreakerIsFailure(t *testing.T) {
	notFound := errors.New("not found")
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return !errors.Is(err, notFound) },
	})
	_ = cb.Execute(func() error { return notFound })
	if cb.State() != StateClosed {
		t.Fatal("ignored error tripped the breaker")
	}
}

func TestCircuitBreakerReset(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 1})
	_ = cb.Execute(fail)
	cb.Reset()
	if cb.State() != StateClosed {
		t.Fatal("Reset did not close the breaker")
	}
}

func TestRetry(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), "op", RetryConfig{MaxAttempts: 4, InitialDelay: time.Millisecond}, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errFail
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("err = %v, attempts = %d", err, attempts)
	}
}

func TestRetryGivesUp(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), "op", RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}, func(context.Context) error {
		attempts++
		return errFail
	})
	if !errors.Is(err, errFail) || attempts != 3 {
		t.Fatalf("err = %v, attempts = %d", err, attempts)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Retry(ctx, "op", RetryConfig{MaxAttempts: 10, InitialDelay: time.Hour}, func(context.Context) error {
		attempts++
		cancel()
		return errFail
	})
	if !errors.Is(err, context.Canceled) || attempts != 1 {
		t.Fatalf("err = %v, attempts = %d", err, attempts)
	}
}

func TestRetryDelayIsCapped(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 3 * time.Second}.withDefaults()
	cfg.JitterFraction = 0
	if d := cfg.delay(1); d != time.Second {
		t.Fatalf("delay(1) = %v", d)
	}
	if d := cfg.delay(2); d != 2*time.Second {
		t.Fatalf("delay(2) = %v", d)
	}
	if d := cfg.delay(5); d != 3*time.Second {
		t.Fatalf("delay(5) = %v", d)
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	err = WithTimeout(context.Background(), time.Second, "fast", func(context.Context) error { return errFail })
	if !errors.Is(err, errFail) || errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want the function's own error", err)
	}

	if err := WithTimeout(context.Background(), 0, "unbounded", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			return errors.New("unexpected deadline")
		}
		return nil
	}); err != nil {
		t.Fatalf("err = %v", err)
	}
}
