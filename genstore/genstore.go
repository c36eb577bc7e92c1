// Package genstore keeps generation counters for cache keys.
//
// The store stamps every entry with the generation its key had when the entry
// was written. Deleting a key (a delete mutation, or Write with the delete
// flag) bumps the generation, so a copy of the entry that survives somewhere
// (a slow provider delete, another replica's write racing the delete) is
// recognised as stale and dropped on read. The namespace epoch used by Clear
// is one more generation counter.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use LocalGenStore (default) for in-process gens, or RedisGenStore when
// several processes share one Redis provider.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, key string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, key string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}

// Pinner is implemented by stores whose Cleanup can forget keys. A pinned
// key is never pruned.
type Pinner interface {
	Pin(key string)
}
