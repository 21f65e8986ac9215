package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWriteLimiter_AcquireRelease(t *testing.T) {
	limiter := NewWriteLimiter(2, time.Second)

	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("initial ActiveCount = %d, want 0", got)
	}
	if got := limiter.Available(); got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}

	ctx := context.Background()
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}

	if got := limiter.ActiveCount(); got != 2 {
		t.Errorf("after two Acquires, ActiveCount = %d, want 2", got)
	}
	if got := limiter.Available(); got != 0 {
		t.Errorf("after two Acquires, Available = %d, want 0", got)
	}

	limiter.Release()
	limiter.Release()

	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("after Releases, ActiveCount = %d, want 0", got)
	}
}

func TestWriteLimiter_Defaults(t *testing.T) {
	limiter := NewWriteLimiter(0, 0)

	if got := limiter.MaxConcurrent(); got != DefaultMaxConcurrentWrites {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentWrites)
	}
	if limiter.maxWait != DefaultMaxWaitTime {
		t.Errorf("maxWait = %v, want %v", limiter.maxWait, DefaultMaxWaitTime)
	}
}

func TestWriteLimiter_Timeout(t *testing.T) {
	limiter := NewWriteLimiter(1, 20*time.Millisecond)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	err := limiter.Acquire(ctx)
	if !errors.Is(err, ErrTooManyWrites) {
		t.Errorf("second Acquire error = %v, want ErrTooManyWrites", err)
	}
}

func TestWriteLimiter_ContextCancelled(t *testing.T) {
	limiter := NewWriteLimiter(1, time.Minute)

	if !limiter.TryAcquire() {
		t.Fatal("TryAcquire on empty limiter = false")
	}
	defer limiter.Release()

	if limiter.TryAcquire() {
		t.Fatal("TryAcquire on full limiter = true")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire with cancelled context = %v, want context.Canceled", err)
	}
}

func TestWriteLimiter_Serializes(t *testing.T) {
	limiter := NewWriteLimiter(1, time.Second)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		current int
		peak    int
	)

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(ctx); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer limiter.Release()

			mu.Lock()
			current++
			peak = max(peak, current)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			current--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Errorf("peak concurrent writers = %d, want 1", peak)
	}
}

func TestWriteLimiter_WaitForDrain(t *testing.T) {
	limiter := NewWriteLimiter(2, time.Second)
	ctx := context.Background()

	if err := limiter.WaitForDrain(ctx); err != nil {
		t.Fatalf("WaitForDrain on idle limiter: %v", err)
	}

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		limiter.Release()
	}()

	drainCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := limiter.WaitForDrain(drainCtx); err != nil {
		t.Errorf("WaitForDrain = %v, want nil", err)
	}

	status := limiter.Status()
	if status.Active != 0 || status.Available != 2 || status.MaxConcurrent != 2 {
		t.Errorf("Status = %+v, want idle limiter with 2 slots", status)
	}
}
