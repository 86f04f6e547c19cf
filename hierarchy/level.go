// Package hierarchy defines the abstraction levels of the requirement
// graph and the rules constraining dependencies between them.
package hierarchy

import "fmt"

// Level is an abstraction level in the requirement hierarchy. Lower
// values are more abstract; 0 is the top.
type Level int

const (
	// LevelVision is the top of the hierarchy: why the system exists.
	LevelVision Level = 0
	// LevelArchitecture captures system-wide structural decisions.
	LevelArchitecture Level = 1
	// LevelModule captures a bounded functional area.
	LevelModule Level = 2
	// LevelComponent captures a concrete buildable part.
	LevelComponent Level = 3
	// LevelTask is the bottom of the hierarchy: an actionable unit.
	LevelTask Level = 4
)

// MaxDepth is the number of levels in the hierarchy.
const MaxDepth = 5

// ConstraintMaxDepth names the depth limit in constraint violation
// errors.
const ConstraintMaxDepth = "max_depth"

// levelNames maps each level to its canonical name.
var levelNames = map[Level]string{
	LevelVision:       "vision",
	LevelArchitecture: "architecture",
	LevelModule:       "module",
	LevelComponent:    "component",
	LevelTask:         "task",
}

// levelKeywords maps each level to title keywords that usually indicate
// it, used for advisory level detection only.
var levelKeywords = map[Level][]string{
	LevelVision:       {"vision", "goal", "purpose"},
	LevelArchitecture: {"architecture", "design", "platform"},
	LevelModule:       {"module", "feature", "subsystem"},
	LevelComponent:    {"component", "service", "part"},
	LevelTask:         {"task", "implementation", "implement"},
}

// IsValid returns true if the level is within the hierarchy.
func (l Level) IsValid() bool {
	return l >= LevelVision && l <= LevelTask
}

// String returns the canonical level name, or the numeric form for
// out-of-range values.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel resolves a canonical level name.
func ParseLevel(name string) (Level, bool) {
	for l, n := range levelNames {
		if n == name {
			return l, true
		}
	}
	return 0, false
}
