package core

// write_limiter.go bounds concurrent mutations.
//
// Every write runs a read-modify-write sequence against the grid (locate the
// row, then write it). The limiter is a semaphore in front of that sequence.
// With the default of one slot, writes in one process never interleave. When
// all slots are held, a writer waits up to maxWait and then fails with
// ErrTooManyWrites.
//
// WaitForDrain blocks until in-flight writes finish, for graceful shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyWrites is returned when no write slot frees up within the wait
// timeout. Clients should retry after a short delay.
var ErrTooManyWrites = errors.New("too many concurrent writes, please try again later")

// DefaultMaxConcurrentWrites serializes writes.
const DefaultMaxConcurrentWrites = 1

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 10 * time.Second

// WriteLimiter controls concurrent writes using a semaphore.
type WriteLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewWriteLimiter creates a limiter that admits at most maxConcurrent writes.
// Writers that cannot get a slot within maxWait receive ErrTooManyWrites.
func NewWriteLimiter(maxConcurrent int, maxWait time.Duration) *WriteLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentWrites
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &WriteLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a write slot.
// The caller MUST call Release when the write completes (use defer).
func (l *WriteLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyWrites
	}
}

// TryAcquire takes a slot without blocking and reports whether it did.
func (l *WriteLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *WriteLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of writes in flight.
func (l *WriteLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *WriteLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of free slots.
func (l *WriteLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no writes are in flight or ctx is done.
func (l *WriteLimiter) WaitForDrain(ctx context.Context) error {
	if l.ActiveCount() == 0 {
		return nil
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}

// WriteLimiterStatus is a snapshot of the limiter.
type WriteLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for health reporting.
func (l *WriteLimiter) Status() WriteLimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return WriteLimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
