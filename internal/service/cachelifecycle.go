package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"address-rest-api/internal/cache"
)

// Phase is the lifecycle state of the cache manager.
type Phase int32

const (
	PhaseRunning Phase = iota
	PhaseShuttingDown
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseShuttingDown:
		return "shutting_down"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Retry behavior for the shutdown clear.
const (
	cacheClearAttempts   = 3
	cacheClearRetryDelay = 100 * time.Millisecond
)

// CacheLifecycleManager owns the cache's process-wide lifecycle: it
// clears all cache layers on startup, clears them on shutdown with
// bounded retry, and serves the administrative flush endpoint.
//
// Once shutdown is requested, ClearAllCaches becomes a no-op so the
// shutdown path holds exclusive ownership of cache state and cannot
// race with concurrent administrative flushes.
type CacheLifecycleManager struct {
	cache cache.Cache

	phase    atomic.Int32
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewCacheLifecycleManager creates a lifecycle manager in the Running phase.
func NewCacheLifecycleManager(c cache.Cache) *CacheLifecycleManager {
	return &CacheLifecycleManager{
		cache:  c,
		stopCh: make(chan struct{}),
	}
}

// Phase returns the current lifecycle phase.
func (m *CacheLifecycleManager) Phase() Phase {
	return Phase(m.phase.Load())
}

// OnStart clears all caches so no data from a prior process instance
// survives into this one. A failure is logged, never fatal: the
// service starts regardless.
func (m *CacheLifecycleManager) OnStart(ctx context.Context) {
	log.Printf("[CacheLifecycle] Initializing caches...")
	if err := m.ClearAllCaches(ctx); err != nil {
		log.Printf("[CacheLifecycle] Startup cache clear failed: %v", err)
		return
	}
	log.Printf("[CacheLifecycle] Caches cleared on startup")
}

// OnShutdownRequested transitions Running -> ShuttingDown and clears
// all caches with bounded retry. It never blocks shutdown on a cache
// failure; after the final attempt it gives up and returns. Safe to
// call more than once.
func (m *CacheLifecycleManager) OnShutdownRequested(ctx context.Context) {
	if !m.phase.CompareAndSwap(int32(PhaseRunning), int32(PhaseShuttingDown)) {
		return
	}

	log.Printf("[CacheLifecycle] Shutdown requested, clearing caches...")
	m.clearAllCachesWithRetry(ctx)
	m.phase.Store(int32(PhaseStopped))
}

// Interrupt abandons any in-flight shutdown retry loop immediately.
// Wired to a second termination signal.
func (m *CacheLifecycleManager) Interrupt() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// ClearAllCaches is the on-demand full flush. While shutting down it
// returns immediately without touching the cache store: the shutdown
// clear owns cache state from that point on. Otherwise it clears every
// namespace, then flushes the store database wholesale; only a
// non-"already stopped" flush failure is surfaced.
func (m *CacheLifecycleManager) ClearAllCaches(ctx context.Context) error {
	if m.Phase() != PhaseRunning {
		log.Printf("[CacheLifecycle] Skipping cache clear - shutdown in progress")
		return nil
	}

	if err := m.clearAll(ctx); err != nil {
		if m.Phase() != PhaseRunning {
			log.Printf("[CacheLifecycle] Cache clear failed during shutdown (ignored): %v", err)
			return nil
		}
		return err
	}
	return nil
}

// clearAll clears every namespace, continuing past individual
// failures, then flushes the store database. A stopped store counts as
// already clean.
func (m *CacheLifecycleManager) clearAll(ctx context.Context) error {
	for _, ns := range cache.Namespaces() {
		if err := cache.ClearNamespace(ctx, m.cache, ns); err != nil {
			log.Printf("[CacheLifecycle] Failed to clear namespace %q: %v", ns, err)
			continue
		}
		log.Printf("[CacheLifecycle] Cleared namespace %q", ns)
	}

	if err := m.cache.FlushDB(ctx); err != nil {
		if errors.Is(err, cache.ErrStoreStopped) {
			log.Printf("[CacheLifecycle] Cache store already stopped, skipping flush")
			return nil
		}
		return err
	}

	log.Printf("[CacheLifecycle] Flushed cache store")
	return nil
}

// clearAllCachesWithRetry attempts the full clear up to
// cacheClearAttempts times, waiting cacheClearRetryDelay between
// attempts. An interrupt or context cancellation abandons the loop
// immediately; all failures are logged, none propagate.
func (m *CacheLifecycleManager) clearAllCachesWithRetry(ctx context.Context) {
	for attempt := 1; attempt <= cacheClearAttempts; attempt++ {
		log.Printf("[CacheLifecycle] Cache clear attempt %d/%d", attempt, cacheClearAttempts)

		err := m.clearAll(ctx)
		if err == nil {
			log.Printf("[CacheLifecycle] Successfully cleared all caches (attempt %d)", attempt)
			return
		}

		log.Printf("[CacheLifecycle] Cache clear attempt %d failed: %v", attempt, err)
		if attempt == cacheClearAttempts {
			log.Printf("[CacheLifecycle] Giving up after %d attempts", cacheClearAttempts)
			return
		}

		select {
		case <-time.After(cacheClearRetryDelay):
		case <-m.stopCh:
			log.Printf("[CacheLifecycle] Cache clear interrupted, abandoning retries")
			return
		case <-ctx.Done():
			log.Printf("[CacheLifecycle] Cache clear canceled, abandoning retries")
			return
		}
	}
}
