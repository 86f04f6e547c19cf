package hierarchy

import (
	"fmt"
	"strings"
)

// Violation severities. Critical violations reject the edge; moderate
// ones are advisories that pass through to friction scoring.
const (
	SeverityCritical = "critical"
	SeverityModerate = "moderate"
)

// Violation describes a dependency that breaks or strains the level
// rules.
type Violation struct {
	FromLevel   Level  `json:"from_level"`
	ToLevel     Level  `json:"to_level"`
	FromTitle   string `json:"from_title,omitempty"`
	ToTitle     string `json:"to_title,omitempty"`
	Severity    string `json:"severity"`
	Explanation string `json:"explanation"`
	Remediation string `json:"suggested_remediation"`
}

// Critical returns true if the violation must reject the edge.
func (v *Violation) Critical() bool {
	return v.Severity == SeverityCritical
}

// CanDependOn returns true if a requirement at level from may depend on
// one at level to. Dependencies point strictly upward: the target must
// be more abstract than the source.
func CanDependOn(from, to Level) bool {
	return to < from
}

// Check evaluates a proposed dependency from one level to another.
// It returns nil when the edge is allowed and adjacent, a critical
// violation when the target is at or below the source, and a moderate
// advisory when the edge skips intermediate levels.
func Check(from, to Level, fromTitle, toTitle string) *Violation {
	if !CanDependOn(from, to) {
		return &Violation{
			FromLevel: from,
			ToLevel:   to,
			FromTitle: fromTitle,
			ToTitle:   toTitle,
			Severity:  SeverityCritical,
			Explanation: fmt.Sprintf(
				"a %s (level %d) cannot depend on a %s (level %d); dependencies must point toward more abstract requirements",
				from, int(from), to, int(to)),
			Remediation: fmt.Sprintf(
				"reverse the dependency, or move %q above level %d",
				toTitle, int(from)),
		}
	}
	if from-to >= 2 {
		return &Violation{
			FromLevel: from,
			ToLevel:   to,
			FromTitle: fromTitle,
			ToTitle:   toTitle,
			Severity:  SeverityModerate,
			Explanation: fmt.Sprintf(
				"a %s (level %d) depending directly on a %s (level %d) skips %d intermediate level(s)",
				from, int(from), to, int(to), int(from-to)-1),
			Remediation: "introduce intermediate requirements so each dependency crosses one level",
		}
	}
	return nil
}

// DetectLevel guesses the level a title suggests by keyword, scanning
// from the most abstract level down. The result is advisory; it never
// gates a write.
func DetectLevel(title string) (Level, bool) {
	lowered := strings.ToLower(title)
	for l := LevelVision; l <= LevelTask; l++ {
		for _, kw := range levelKeywords[l] {
			if strings.Contains(lowered, kw) {
				return l, true
			}
		}
	}
	return 0, false
}
