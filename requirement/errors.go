package requirement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/c360studio/reqgraph/hierarchy"
)

// Kind discriminates the failure modes of the engine. Every engine error
// is an *Error carrying exactly one Kind; callers dispatch on the kind
// rather than on message text.
type Kind string

const (
	// KindValidation marks malformed input rejected before any write.
	KindValidation Kind = "validation"
	// KindConflict marks a lost race to create the same version index.
	KindConflict Kind = "conflict"
	// KindStaleWrite marks a location pointer advance whose expected
	// version no longer matches.
	KindStaleWrite Kind = "stale_write"
	// KindSelfReference marks an edge from a requirement to itself.
	KindSelfReference Kind = "self_reference"
	// KindCircularDependency marks an edge that would close a cycle.
	KindCircularDependency Kind = "circular_dependency"
	// KindHierarchyViolation marks an edge that breaks the level rules.
	KindHierarchyViolation Kind = "hierarchy_violation"
	// KindNotFound marks a lookup of an id that was never created.
	KindNotFound Kind = "not_found"
	// KindDeleted marks a lookup of an id whose latest version is the
	// delete tombstone. Distinct from KindNotFound: the history remains
	// readable.
	KindDeleted Kind = "deleted"
	// KindInvalidTransition marks a status change the lifecycle forbids.
	KindInvalidTransition Kind = "invalid_transition"
	// KindConstraintViolation marks a structural limit breach such as
	// exceeding the maximum hierarchy depth.
	KindConstraintViolation Kind = "constraint_violation"
)

// Error is the single structured error type returned by the engine. Only
// the fields relevant to the Kind are populated.
type Error struct {
	Kind    Kind
	Message string

	// LogicalID names the requirement the failure concerns, when one
	// applies.
	LogicalID string
	// Field names the offending input field for validation errors.
	Field string

	// Path is the full dependency cycle for circular_dependency errors,
	// ordered from the proposed source back to itself.
	Path []string

	// FromLevel, ToLevel, FromTitle, ToTitle, Severity, and Remediation
	// describe hierarchy_violation errors.
	FromLevel   hierarchy.Level
	ToLevel     hierarchy.Level
	FromTitle   string
	ToTitle     string
	Severity    string
	Remediation string

	// FromStatus and ToStatus describe invalid_transition errors.
	FromStatus Status
	ToStatus   Status

	// Constraint names the violated limit for constraint_violation
	// errors, e.g. "max_depth".
	Constraint string

	// ExpectedVersion and ActualVersion describe stale_write errors.
	ExpectedVersion int
	ActualVersion   int

	err error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is matches two engine errors by kind so errors.Is can be used with the
// kind sentinel helpers.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of an engine error, or "" when err is not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// NewValidation builds a validation error for a single field.
func NewValidation(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Field:   field,
		Message: fmt.Sprintf("%s: %s", field, message),
	}
}

// NewConflict reports a concurrent attempt to write the same version.
func NewConflict(logicalID string, version int) *Error {
	return &Error{
		Kind:      KindConflict,
		LogicalID: logicalID,
		Message: fmt.Sprintf(
			"version %d of %q was created concurrently; re-read the latest version and retry",
			version, logicalID),
	}
}

// NewStaleWrite reports a location pointer advance based on an outdated
// read.
func NewStaleWrite(logicalID string, expected, actual int) *Error {
	return &Error{
		Kind:            KindStaleWrite,
		LogicalID:       logicalID,
		ExpectedVersion: expected,
		ActualVersion:   actual,
		Message: fmt.Sprintf(
			"location pointer for %q moved to version %d while this write expected %d; re-read and retry",
			logicalID, actual, expected),
	}
}

// NewSelfReference reports an edge from a requirement to itself.
func NewSelfReference(logicalID string) *Error {
	return &Error{
		Kind:      KindSelfReference,
		LogicalID: logicalID,
		Message:   fmt.Sprintf("requirement %q cannot depend on itself", logicalID),
	}
}

// NewCircularDependency reports an edge that would close the given cycle.
// The path runs from the proposed source through existing edges back to
// itself.
func NewCircularDependency(path []string) *Error {
	return &Error{
		Kind: KindCircularDependency,
		Path: path,
		Message: fmt.Sprintf(
			"adding this dependency would create a cycle: %s",
			strings.Join(path, " -> ")),
	}
}

// NewHierarchyViolation reports an edge that breaks the abstraction-level
// rules.
func NewHierarchyViolation(v *hierarchy.Violation) *Error {
	return &Error{
		Kind:        KindHierarchyViolation,
		FromLevel:   v.FromLevel,
		ToLevel:     v.ToLevel,
		FromTitle:   v.FromTitle,
		ToTitle:     v.ToTitle,
		Severity:    v.Severity,
		Remediation: v.Remediation,
		Message:     v.Explanation,
	}
}

// NewNotFound reports a lookup of a logical id with no versions.
func NewNotFound(logicalID string) *Error {
	return &Error{
		Kind:      KindNotFound,
		LogicalID: logicalID,
		Message:   fmt.Sprintf("requirement %q not found", logicalID),
	}
}

// NewVersionNotFound reports a lookup of a version index that was never
// written.
func NewVersionNotFound(logicalID string, version int) *Error {
	return &Error{
		Kind:      KindNotFound,
		LogicalID: logicalID,
		Message:   fmt.Sprintf("version %d of requirement %q not found", version, logicalID),
	}
}

// NewDeleted reports a read of a logical id whose latest version is the
// delete tombstone.
func NewDeleted(logicalID string) *Error {
	return &Error{
		Kind:      KindDeleted,
		LogicalID: logicalID,
		Message:   fmt.Sprintf("requirement %q has been deleted; its history remains readable", logicalID),
	}
}

// NewInvalidTransition reports a status change the lifecycle forbids,
// listing the allowed targets.
func NewInvalidTransition(logicalID string, from, to Status) *Error {
	allowed := from.AllowedTransitions()
	var hint string
	if len(allowed) == 0 {
		hint = fmt.Sprintf("%q is terminal", from)
	} else {
		names := make([]string, len(allowed))
		for i, s := range allowed {
			names[i] = string(s)
		}
		hint = "allowed: " + strings.Join(names, ", ")
	}
	return &Error{
		Kind:       KindInvalidTransition,
		LogicalID:  logicalID,
		FromStatus: from,
		ToStatus:   to,
		Message: fmt.Sprintf(
			"requirement %q cannot move from %q to %q (%s)",
			logicalID, from, to, hint),
	}
}

// NewConstraintViolation reports a breach of a named structural limit.
func NewConstraintViolation(constraint, message string) *Error {
	return &Error{
		Kind:       KindConstraintViolation,
		Constraint: constraint,
		Message:    message,
	}
}

// Wrap attaches an underlying cause while preserving the kind and
// structured fields.
func (e *Error) Wrap(err error) *Error {
	e.err = err
	return e
}
