// Package storage persists versioned requirement entities in NATS KV.
// Version records and dependency events are append-only; the only
// mutable state is one location pointer per logical id, advanced with
// compare-and-swap.
package storage

import "context"

// Bucket names for each record class.
const (
	BucketVersions  = "REQGRAPH_VERSIONS"
	BucketLocations = "REQGRAPH_LOCATIONS"
	BucketEdges     = "REQGRAPH_EDGES"
)

// KV is the minimal key-value contract the engine needs from its
// backing store: put, get, scan, and revision-checked update. Anything
// beyond this stays out so alternative backends remain drop-in.
type KV interface {
	// Create writes a key that must not yet exist and returns the new
	// revision. ErrKeyExists if the key is already present.
	Create(ctx context.Context, key string, value []byte) (uint64, error)

	// Put writes a key unconditionally and returns the new revision.
	Put(ctx context.Context, key string, value []byte) (uint64, error)

	// Get returns the value and current revision of a key, or
	// ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, uint64, error)

	// Update writes a key only if its current revision matches
	// expectedRevision, returning the new revision. ErrRevisionMismatch
	// if another writer advanced the key first.
	Update(ctx context.Context, key string, value []byte, expectedRevision uint64) (uint64, error)

	// Keys lists every key in the bucket. An empty bucket yields an
	// empty slice, not an error.
	Keys(ctx context.Context) ([]string, error)
}
