// Package kv provides a small key-value store abstraction used for
// transient auth state (single-use OAuth state nonces). It allows
// swapping backends (Redis/Valkey, in-memory for tests) without
// touching the auth service.
package kv

import (
	"context"
	"time"
)

// Store defines a minimal key-value interface. Keys are strings, values
// are byte slices. All writes carry a TTL.
type Store interface {
	// Set stores a value with the given key and TTL.
	// If TTL is 0, the key does not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by key. Returns ErrNotFound if the key
	// doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// GetDel atomically retrieves and removes a key, so a value meant
	// to be single-use is observed by at most one caller. Returns
	// ErrNotFound if the key doesn't exist or has expired.
	GetDel(ctx context.Context, key string) ([]byte, error)

	// SetNX sets a value only if the key doesn't exist (atomic).
	// Returns true if the key was set, false if it already existed.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close closes the connection to the store.
	Close() error
}
