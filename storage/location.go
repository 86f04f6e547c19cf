package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/c360studio/reqgraph/requirement"
)

// Pointer is the single mutable cell per logical id. It names the
// current version; every other record in the system is append-only.
type Pointer struct {
	LogicalID    string    `json:"logical_id"`
	EntityID     string    `json:"entity_id"`
	VersionIndex int       `json:"version_index"`
	Deleted      bool      `json:"deleted"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LocationIndex maps logical ids to their current version pointer.
// Advances are compare-and-swap on both the expected version index and
// the KV revision, so a writer holding a stale read can never clobber a
// newer pointer.
type LocationIndex struct {
	kv KV
}

// NewLocationIndex builds a LocationIndex over the given bucket.
func NewLocationIndex(kv KV) *LocationIndex {
	return &LocationIndex{kv: kv}
}

// Resolve returns the current pointer for a logical id along with the
// KV revision to use for a subsequent Advance.
func (l *LocationIndex) Resolve(ctx context.Context, logicalID string) (*Pointer, uint64, error) {
	data, rev, err := l.kv.Get(ctx, logicalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, 0, requirement.NewNotFound(logicalID)
		}
		return nil, 0, fmt.Errorf("resolve pointer %s: %w", logicalID, err)
	}
	var p Pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, 0, fmt.Errorf("unmarshal pointer %s: %w", logicalID, err)
	}
	return &p, rev, nil
}

// Init writes the first pointer for a logical id. A concurrent Init of
// the same id loses with a conflict.
func (l *LocationIndex) Init(ctx context.Context, p Pointer) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal pointer %s: %w", p.LogicalID, err)
	}
	if _, err := l.kv.Create(ctx, p.LogicalID, data); err != nil {
		if errors.Is(err, ErrKeyExists) {
			return requirement.NewConflict(p.LogicalID, p.VersionIndex)
		}
		return fmt.Errorf("init pointer %s: %w", p.LogicalID, err)
	}
	return nil
}

// Advance moves the pointer to next if and only if it still names
// expectedIndex and the KV revision matches rev. Either mismatch is a
// stale write.
func (l *LocationIndex) Advance(ctx context.Context, logicalID string, expectedIndex int, rev uint64, next Pointer) error {
	current, currentRev, err := l.Resolve(ctx, logicalID)
	if err != nil {
		return err
	}
	if current.VersionIndex != expectedIndex || currentRev != rev {
		return requirement.NewStaleWrite(logicalID, expectedIndex, current.VersionIndex)
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal pointer %s: %w", logicalID, err)
	}
	if _, err := l.kv.Update(ctx, logicalID, data, rev); err != nil {
		if errors.Is(err, ErrRevisionMismatch) {
			return requirement.NewStaleWrite(logicalID, expectedIndex, current.VersionIndex)
		}
		return fmt.Errorf("advance pointer %s: %w", logicalID, err)
	}
	return nil
}

// List scans every pointer. Entries that fail to load are skipped.
func (l *LocationIndex) List(ctx context.Context) ([]*Pointer, error) {
	keys, err := l.kv.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pointer keys: %w", err)
	}
	pointers := make([]*Pointer, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, _, err := l.kv.Get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		var p Pointer
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		pointers = append(pointers, &p)
	}
	return pointers, nil
}
