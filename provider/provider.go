// Package provider defines the byte store behind the gqlcache Store.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation).
//
// The keyspaces "q:<ns>:" and "w:<ns>:" are owned by gqlcache. External code
// MUST NOT write values under these prefixes; foreign writes fail wire
// validation and are deleted on read.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs.
// Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Resetter is implemented by in-process providers that can drop every entry
// at once. The store calls it on Clear after rotating the namespace epoch;
// shared providers (Redis) deliberately do not implement it.
type Resetter interface {
	Reset(ctx context.Context) error
}
