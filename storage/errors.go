package storage

import "errors"

// Sentinel errors surfaced by KV implementations. The stores above this
// layer translate them into the engine's structured error taxonomy.
var (
	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("key not found")
	// ErrKeyExists is returned when a Create hits an existing key.
	ErrKeyExists = errors.New("key already exists")
	// ErrRevisionMismatch is returned when an Update loses a
	// compare-and-swap race.
	ErrRevisionMismatch = errors.New("revision mismatch")
)
