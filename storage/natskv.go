package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
)

// NATSKV adapts a JetStream key-value bucket to the KV contract.
type NATSKV struct {
	kv jetstream.KeyValue
}

// NewNATSKV opens the named bucket, creating it if it does not exist.
func NewNATSKV(ctx context.Context, js jetstream.JetStream, bucket string) (*NATSKV, error) {
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}
	return &NATSKV{kv: kv}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Reqgraph %s storage", strings.ToLower(name)),
		History:     5, // Keep last 5 revisions
	})
}

// Create writes a key that must not yet exist.
func (n *NATSKV) Create(ctx context.Context, key string, value []byte) (uint64, error) {
	rev, err := n.kv.Create(ctx, key, value)
	if err != nil {
		if isKeyExists(err) {
			return 0, ErrKeyExists
		}
		return 0, fmt.Errorf("kv create %s: %w", key, err)
	}
	return rev, nil
}

// Put writes a key unconditionally.
func (n *NATSKV) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	rev, err := n.kv.Put(ctx, key, value)
	if err != nil {
		return 0, fmt.Errorf("kv put %s: %w", key, err)
	}
	return rev, nil
}

// Get returns the value and revision of a key.
func (n *NATSKV) Get(ctx context.Context, key string) ([]byte, uint64, error) {
	entry, err := n.kv.Get(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("kv get %s: %w", key, err)
	}
	return entry.Value(), entry.Revision(), nil
}

// Update writes a key only if its revision still matches.
func (n *NATSKV) Update(ctx context.Context, key string, value []byte, expectedRevision uint64) (uint64, error) {
	rev, err := n.kv.Update(ctx, key, value, expectedRevision)
	if err != nil {
		if isWrongRevision(err) {
			return 0, ErrRevisionMismatch
		}
		return 0, fmt.Errorf("kv update %s: %w", key, err)
	}
	return rev, nil
}

// Keys lists every key in the bucket.
func (n *NATSKV) Keys(ctx context.Context) ([]string, error) {
	keys, err := n.kv.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("kv keys: %w", err)
	}
	return keys, nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}

// isKeyExists checks if an error indicates a Create hit an existing key.
func isKeyExists(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, jetstream.ErrKeyExists) || strings.Contains(err.Error(), "key exists")
}

// isWrongRevision checks if an error indicates a CAS update lost its
// race. JetStream reports this as a wrong last sequence error.
func isWrongRevision(err error) bool {
	return err != nil && strings.Contains(err.Error(), "wrong last sequence")
}
