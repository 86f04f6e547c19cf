// Package history answers point-in-time questions over the immutable
// version chain: full history, state as of a timestamp, and per-field
// diffs between versions.
package history

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/c360studio/reqgraph/requirement"
	"github.com/c360studio/reqgraph/storage"
)

// Service reads version chains from the entity store. It never writes.
type Service struct {
	store *storage.EntityStore
}

// NewService builds a history service over the entity store.
func NewService(store *storage.EntityStore) *Service {
	return &Service{store: store}
}

// History returns every version of a requirement oldest first, exactly
// as stored. Delete markers appear in the chain like any other
// version.
func (s *Service) History(ctx context.Context, logicalID string) ([]*requirement.Requirement, error) {
	return s.store.AllVersions(ctx, logicalID)
}

// AtTimestamp returns the version that was current at the given time:
// the latest version whose creation is at or before it. A timestamp
// before the first version is a not-found error.
func (s *Service) AtTimestamp(ctx context.Context, logicalID string, at time.Time) (*requirement.Requirement, error) {
	it, err := s.store.Versions(ctx, logicalID)
	if err != nil {
		return nil, err
	}

	var current *requirement.Requirement
	for it.Next(ctx) {
		r := it.Requirement()
		if r.CreatedAt.After(at) {
			break
		}
		current = r
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &requirement.Error{
			Kind:      requirement.KindNotFound,
			LogicalID: logicalID,
			Message:   fmt.Sprintf("requirement %s did not exist at %s", logicalID, at.UTC().Format(time.RFC3339)),
		}
	}
	return current, nil
}

// FieldChange records one field's value before and after. An added
// field has a nil Before; a removed field has a nil After.
type FieldChange struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// Diff describes the field-level changes between two versions of one
// requirement.
type Diff struct {
	LogicalID string                 `json:"logical_id"`
	FromIndex int                    `json:"from_version"`
	ToIndex   int                    `json:"to_version"`
	Changes   map[string]FieldChange `json:"changes"`
}

// Diff compares two versions field by field. Extension keys are
// reported as extensions.<key>, including keys added or removed
// between the versions. Write metadata (author, change reason) is not
// compared; it annotates the write, not the requirement state.
func (s *Service) Diff(ctx context.Context, logicalID string, fromIndex, toIndex int) (*Diff, error) {
	before, err := s.store.GetVersion(ctx, logicalID, fromIndex)
	if err != nil {
		return nil, err
	}
	after, err := s.store.GetVersion(ctx, logicalID, toIndex)
	if err != nil {
		return nil, err
	}

	d := &Diff{
		LogicalID: logicalID,
		FromIndex: fromIndex,
		ToIndex:   toIndex,
		Changes:   make(map[string]FieldChange),
	}

	if before.Title != after.Title {
		d.Changes["title"] = FieldChange{Before: before.Title, After: after.Title}
	}
	if before.Description != after.Description {
		d.Changes["description"] = FieldChange{Before: before.Description, After: after.Description}
	}
	if before.Status != after.Status {
		d.Changes["status"] = FieldChange{Before: string(before.Status), After: string(after.Status)}
	}
	if before.Priority != after.Priority {
		d.Changes["priority"] = FieldChange{Before: before.Priority, After: after.Priority}
	}
	if before.RequirementType != after.RequirementType {
		d.Changes["requirement_type"] = FieldChange{Before: before.RequirementType, After: after.RequirementType}
	}
	if before.HierarchyLevel != after.HierarchyLevel {
		d.Changes["hierarchy_level"] = FieldChange{Before: int(before.HierarchyLevel), After: int(after.HierarchyLevel)}
	}

	for key, b := range before.Extensions {
		a, ok := after.Extensions[key]
		switch {
		case !ok:
			d.Changes["extensions."+key] = FieldChange{Before: b, After: nil}
		case !reflect.DeepEqual(a, b):
			d.Changes["extensions."+key] = FieldChange{Before: b, After: a}
		}
	}
	for key, a := range after.Extensions {
		if _, ok := before.Extensions[key]; !ok {
			d.Changes["extensions."+key] = FieldChange{Before: nil, After: a}
		}
	}

	return d, nil
}
