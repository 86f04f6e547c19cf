package requirement

import (
	"fmt"
	"regexp"

	"github.com/c360studio/reqgraph/hierarchy"
)

// logicalIDPattern validates logical ids: lowercase alphanumeric plus
// dot, underscore, and hyphen. Dots are the KV key separator between id
// and version index, so an id never starts or ends with one.
var logicalIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*(\.[a-z0-9][a-z0-9_-]*)*$`)

// MaxLogicalIDLength bounds logical ids so KV keys stay well under the
// subject length limits of the backing store.
const MaxLogicalIDLength = 128

// MaxTitleLength bounds titles.
const MaxTitleLength = 500

// ValidateLogicalID checks that an id is usable as a stable identity and
// as a KV key segment.
func ValidateLogicalID(id string) error {
	if id == "" {
		return NewValidation("logical_id", "must not be empty")
	}
	if len(id) > MaxLogicalIDLength {
		return NewValidation("logical_id",
			fmt.Sprintf("must be at most %d characters", MaxLogicalIDLength))
	}
	if !logicalIDPattern.MatchString(id) {
		return NewValidation("logical_id",
			"must be lowercase alphanumeric with '.', '_' or '-' separators")
	}
	return nil
}

// ValidateFields checks a field set before it is written as a version.
func ValidateFields(f Fields) error {
	if f.Title == "" {
		return NewValidation("title", "must not be empty")
	}
	if len(f.Title) > MaxTitleLength {
		return NewValidation("title",
			fmt.Sprintf("must be at most %d characters", MaxTitleLength))
	}
	if !f.Status.IsValid() {
		return NewValidation("status",
			fmt.Sprintf("unknown status %q", f.Status))
	}
	if f.Priority < 0 {
		return NewValidation("priority", "must not be negative")
	}
	if !f.HierarchyLevel.IsValid() {
		return NewConstraintViolation(hierarchy.ConstraintMaxDepth,
			fmt.Sprintf("hierarchy level %d is outside 0..%d",
				int(f.HierarchyLevel), int(hierarchy.LevelTask)))
	}
	return nil
}
