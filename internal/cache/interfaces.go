package cache

import (
	"context"
	"time"
)

// Cache defines the interface for caching operations.
// This abstraction allows swapping between memory cache (development)
// and Redis cache (production) without changing business logic.
type Cache interface {
	// Get retrieves a value by key. Returns ErrCacheMiss if not found or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)

	// DeleteByPrefix removes every key starting with the given prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error

	// FlushDB removes all entries from the cache store's current database.
	FlushDB(ctx context.Context) error

	// Close releases the underlying connection. Operations on a closed
	// cache return ErrStoreStopped.
	Close() error
}

// Common cache errors
type CacheError string

func (e CacheError) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss CacheError = "cache miss"

	// ErrStoreStopped indicates the cache store connection is already
	// closed. Clear operations treat this as an already-clean store.
	ErrStoreStopped CacheError = "cache store stopped"
)
