// Package writer holds the three write-path components (C5): the
// event creator, the result merger, and the best-effort analytics
// appender, plus the per-key write locks they share.
package writer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeventbooks/eventgateway/observability"
)

// ErrBusy is returned when a KeyedMutex lock could not be acquired
// within its bounded wait.
var ErrBusy = errors.New("writer: lock contention timed out")

// KeyedMutex serializes access per logical key (eventId, or
// brandId+baseSlug) with a bounded wait, adapted from the teacher's
// refcounted per-key mutex map. Because sync.Mutex has no
// context-aware timeout, each key's lock is a buffered chan struct{}
// of size 1: acquiring means sending into it, which can select against
// a deadline.
type KeyedMutex struct {
	mu      sync.Mutex
	locks   map[string]*keyEntry
	metrics *observability.Metrics
}

// WithMetrics attaches the gateway's metrics registry so timed-out
// lock waits are counted. Optional: skipped when nil.
func (km *KeyedMutex) WithMetrics(m *observability.Metrics) *KeyedMutex {
	km.metrics = m
	return km
}

type keyEntry struct {
	ch      chan struct{}
	waiters int32
}

// NewKeyedMutex creates an empty per-key lock manager.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyEntry)}
}

// Lock acquires the lock for key, waiting up to wait (or until ctx is
// done, whichever comes first). On success it returns an unlock
// function the caller must call exactly once. On timeout it returns
// ErrBusy.
func (km *KeyedMutex) Lock(ctx context.Context, key string, wait time.Duration) (func(), error) {
	km.mu.Lock()
	entry, ok := km.locks[key]
	if !ok {
		entry = &keyEntry{ch: make(chan struct{}, 1)}
		km.locks[key] = entry
	}
	atomic.AddInt32(&entry.waiters, 1)
	km.mu.Unlock()

	release := func() {
		km.mu.Lock()
		if atomic.AddInt32(&entry.waiters, -1) == 0 {
			delete(km.locks, key)
		}
		km.mu.Unlock()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case entry.ch <- struct{}{}:
		return func() {
			<-entry.ch
			release()
		}, nil
	case <-timer.C:
		release()
		if km.metrics != nil {
			km.metrics.LockContention.WithLabelValues("shared").Inc()
		}
		return nil, ErrBusy
	case <-ctx.Done():
		release()
		return nil, ctx.Err()
	}
}
