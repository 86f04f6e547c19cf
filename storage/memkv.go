package storage

import (
	"context"
	"sort"
	"sync"
)

// MemKV is an in-memory KV with NATS-compatible semantics: revisions
// are bucket-wide and strictly increasing, so a revision observed on
// one key never repeats anywhere in the bucket. It backs tests and
// embedded single-process use.
type MemKV struct {
	mu      sync.Mutex
	entries map[string]memEntry
	rev     uint64
}

type memEntry struct {
	value    []byte
	revision uint64
}

// NewMemKV returns an empty in-memory bucket.
func NewMemKV() *MemKV {
	return &MemKV{entries: make(map[string]memEntry)}
}

// Create writes a key that must not yet exist.
func (m *MemKV) Create(ctx context.Context, key string, value []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		return 0, ErrKeyExists
	}
	return m.write(key, value), nil
}

// Put writes a key unconditionally.
func (m *MemKV) Put(ctx context.Context, key string, value []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(key, value), nil
}

// Get returns the value and revision of a key.
func (m *MemKV) Get(ctx context.Context, key string) ([]byte, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, 0, ErrNotFound
	}
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, entry.revision, nil
}

// Update writes a key only if its revision still matches.
func (m *MemKV) Update(ctx context.Context, key string, value []byte, expectedRevision uint64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok || entry.revision != expectedRevision {
		return 0, ErrRevisionMismatch
	}
	return m.write(key, value), nil
}

// Keys lists every key in sorted order.
func (m *MemKV) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// write stores a copy of value under key with the next revision. The
// caller holds the mutex.
func (m *MemKV) write(key string, value []byte) uint64 {
	m.rev++
	stored := make([]byte, len(value))
	copy(stored, value)
	m.entries[key] = memEntry{value: stored, revision: m.rev}
	return m.rev
}
