// Package requirement defines the versioned requirement entity, its status
// lifecycle, field validation, and the structured error taxonomy shared by
// every layer of the requirement graph engine.
package requirement

import (
	"time"

	"github.com/c360studio/reqgraph/hierarchy"
)

// Operation records why a version exists.
type Operation string

const (
	// OperationCreate marks the first version of a logical requirement.
	OperationCreate Operation = "create"
	// OperationUpdate marks a subsequent version with changed fields.
	OperationUpdate Operation = "update"
	// OperationDelete marks the terminal tombstone version.
	OperationDelete Operation = "delete"
)

// IsValid returns true if the operation is one of create, update, delete.
func (o Operation) IsValid() bool {
	switch o {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	default:
		return false
	}
}

// Requirement is one immutable version of a logical requirement. Once
// written it is never modified; an update produces a new Requirement with
// the next VersionIndex and the location pointer advances to it.
type Requirement struct {
	// EntityID uniquely identifies this version.
	EntityID string `json:"entity_id"`
	// LogicalID is the stable identity shared by all versions.
	LogicalID string `json:"logical_id"`
	// VersionIndex is 0 for the first version and increments by one
	// per write with no gaps.
	VersionIndex int `json:"version_index"`

	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Status          Status          `json:"status"`
	Priority        int             `json:"priority"`
	RequirementType string          `json:"requirement_type"`
	HierarchyLevel  hierarchy.Level `json:"hierarchy_level"`

	// Extensions carries open, caller-defined fields such as acceptance
	// criteria, constraints, or location anchors.
	Extensions map[string]any `json:"extensions,omitempty"`

	Operation    Operation `json:"operation"`
	Author       string    `json:"author,omitempty"`
	ChangeReason string    `json:"change_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Deleted returns true if this version is the delete tombstone.
func (r *Requirement) Deleted() bool {
	return r.Operation == OperationDelete
}

// HighPriority returns true if the priority value counts as high for
// resource-contention analysis.
func (r *Requirement) HighPriority() bool {
	return r.Priority >= HighPriorityThreshold
}

// HighPriorityThreshold is the priority value at or above which a
// requirement competes in the high-priority pool.
const HighPriorityThreshold = 200

// Fields is the mutable field set supplied when writing a version. The
// store copies it into an immutable Requirement; later edits to the maps
// held by the caller do not leak into stored versions.
type Fields struct {
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Status          Status          `json:"status"`
	Priority        int             `json:"priority"`
	RequirementType string          `json:"requirement_type,omitempty"`
	HierarchyLevel  hierarchy.Level `json:"hierarchy_level"`
	Extensions      map[string]any  `json:"extensions,omitempty"`
	Author          string          `json:"author,omitempty"`
	ChangeReason    string          `json:"change_reason,omitempty"`
}

// DefaultRequirementType is applied when Fields leaves the type empty.
const DefaultRequirementType = "functional"

// Normalize fills defaulted fields in place.
func (f *Fields) Normalize() {
	if f.RequirementType == "" {
		f.RequirementType = DefaultRequirementType
	}
	if f.Status == "" {
		f.Status = StatusProposed
	}
}

// Apply copies the field set onto a version record, deep-copying the
// extension map.
func (f Fields) Apply(r *Requirement) {
	r.Title = f.Title
	r.Description = f.Description
	r.Status = f.Status
	r.Priority = f.Priority
	r.RequirementType = f.RequirementType
	r.HierarchyLevel = f.HierarchyLevel
	r.Author = f.Author
	r.ChangeReason = f.ChangeReason
	if f.Extensions != nil {
		r.Extensions = make(map[string]any, len(f.Extensions))
		for k, v := range f.Extensions {
			r.Extensions[k] = v
		}
	}
}

// FieldsOf extracts the mutable field set from an existing version, used
// as the base for partial updates.
func FieldsOf(r *Requirement) Fields {
	f := Fields{
		Title:           r.Title,
		Description:     r.Description,
		Status:          r.Status,
		Priority:        r.Priority,
		RequirementType: r.RequirementType,
		HierarchyLevel:  r.HierarchyLevel,
		Author:          r.Author,
		ChangeReason:    r.ChangeReason,
	}
	if r.Extensions != nil {
		f.Extensions = make(map[string]any, len(r.Extensions))
		for k, v := range r.Extensions {
			f.Extensions[k] = v
		}
	}
	return f
}
