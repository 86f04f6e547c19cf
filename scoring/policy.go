// Package scoring computes multi-dimensional friction scores for
// requirements. Detectors are pure functions over an assembled
// Subject; persistence, graph traversal, and search stay with the
// caller. Scores live in [-1, 0], where 0 is clean and -1 is the most
// severe finding a category can produce.
package scoring

import (
	"fmt"

	"github.com/c360studio/reqgraph/requirement"
)

// Health classifications, ordered best to worst.
const (
	ClassHealthy        = "healthy"
	ClassNeedsAttention = "needs_attention"
	ClassAtRisk         = "at_risk"
	ClassCritical       = "critical"
)

// Friction categories blended by weight.
const (
	CategoryAmbiguity     = "ambiguity"
	CategoryPriority      = "priority"
	CategoryTemporal      = "temporal"
	CategoryContradiction = "contradiction"
)

// Violation categories. These do not blend; the most severe one wins.
const (
	CategoryHierarchy   = "hierarchy"
	CategoryConstraints = "constraints"
	CategoryDuplicates  = "duplicates"
	CategoryIntegrity   = "integrity"
)

// Policy holds every tunable of the scoring engine. Deployments adjust
// it through configuration; the defaults below are the reference
// behavior.
type Policy struct {
	// Weights blend the friction category scores. Categories absent
	// from the map do not contribute to the blend.
	Weights map[string]float64 `yaml:"weights" json:"weights"`

	// Classification thresholds: a total score strictly above the
	// bound earns the class.
	HealthyAbove        float64 `yaml:"healthy_above" json:"healthy_above"`
	NeedsAttentionAbove float64 `yaml:"needs_attention_above" json:"needs_attention_above"`
	AtRiskAbove         float64 `yaml:"at_risk_above" json:"at_risk_above"`

	// HighPriority is the priority at or above which a requirement
	// counts toward priority friction.
	HighPriority int `yaml:"high_priority" json:"high_priority"`

	// NumericRatio is the factor between two values of the same metric
	// that makes them conflicting.
	NumericRatio float64 `yaml:"numeric_ratio" json:"numeric_ratio"`

	// AmbiguousTerms is vocabulary that marks a requirement as open to
	// interpretation. Matching is case-insensitive.
	AmbiguousTerms []string `yaml:"ambiguous_terms" json:"ambiguous_terms"`

	// Scores are the per-level detector scores.
	Scores LevelScores `yaml:"scores" json:"scores"`
}

// LevelScores carries the score each detector assigns per finding
// level, all in [-1, 0]. Hierarchy-direction and graph-integrity
// breaches stay pinned at -1 and are not configurable: softening them
// would let a broken graph classify as healthy.
type LevelScores struct {
	AmbiguityHigh   float64 `yaml:"ambiguity_high" json:"ambiguity_high"`
	AmbiguityMedium float64 `yaml:"ambiguity_medium" json:"ambiguity_medium"`

	PrioritySevere   float64 `yaml:"priority_severe" json:"priority_severe"`
	PriorityModerate float64 `yaml:"priority_moderate" json:"priority_moderate"`

	TemporalDrift float64 `yaml:"temporal_drift" json:"temporal_drift"`
	TemporalMajor float64 `yaml:"temporal_major" json:"temporal_major"`
	TemporalMinor float64 `yaml:"temporal_minor" json:"temporal_minor"`

	ContradictionUnresolvable float64 `yaml:"contradiction_unresolvable" json:"contradiction_unresolvable"`
	ContradictionSevere       float64 `yaml:"contradiction_severe" json:"contradiction_severe"`
	ContradictionModerate     float64 `yaml:"contradiction_moderate" json:"contradiction_moderate"`

	// HierarchyMismatch scores a title that contradicts the declared
	// level; HierarchyAdvisory scores a level-skipping dependency.
	HierarchyMismatch float64 `yaml:"hierarchy_mismatch" json:"hierarchy_mismatch"`
	HierarchyAdvisory float64 `yaml:"hierarchy_advisory" json:"hierarchy_advisory"`

	// ConstraintStep is applied once per breached constraint, floored
	// at -1.
	ConstraintStep float64 `yaml:"constraint_step" json:"constraint_step"`

	DuplicateIntegration float64 `yaml:"duplicate_integration" json:"duplicate_integration"`
	DuplicateMerge       float64 `yaml:"duplicate_merge" json:"duplicate_merge"`
}

// DefaultLevelScores returns the reference per-level scores.
func DefaultLevelScores() LevelScores {
	return LevelScores{
		AmbiguityHigh:   -0.6,
		AmbiguityMedium: -0.3,

		PrioritySevere:   -0.7,
		PriorityModerate: -0.4,

		TemporalDrift: -0.8,
		TemporalMajor: -0.5,
		TemporalMinor: -0.3,

		ContradictionUnresolvable: -0.9,
		ContradictionSevere:       -0.6,
		ContradictionModerate:     -0.4,

		HierarchyMismatch: -0.3,
		HierarchyAdvisory: -0.3,

		ConstraintStep: -0.2,

		DuplicateIntegration: -0.8,
		DuplicateMerge:       -0.3,
	}
}

// DefaultPolicy returns the reference scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		Weights: map[string]float64{
			CategoryAmbiguity:     0.2,
			CategoryPriority:      0.3,
			CategoryTemporal:      0.2,
			CategoryContradiction: 0.3,
		},
		HealthyAbove:        -0.2,
		NeedsAttentionAbove: -0.5,
		AtRiskAbove:         -0.7,
		HighPriority:        requirement.HighPriorityThreshold,
		NumericRatio:        2.0,
		AmbiguousTerms: []string{
			"user-friendly",
			"easy to use",
			"efficient",
			"appropriate",
			"optimal",
			"intuitive",
			"flexible",
		},
		Scores: DefaultLevelScores(),
	}
}

// Validate rejects policies that cannot classify consistently.
func (p Policy) Validate() error {
	var sum float64
	for category, w := range p.Weights {
		if w < 0 {
			return fmt.Errorf("weight for %s is negative", category)
		}
		sum += w
	}
	if sum <= 0 {
		return fmt.Errorf("weights sum to %v, need a positive total", sum)
	}
	if !(p.HealthyAbove > p.NeedsAttentionAbove && p.NeedsAttentionAbove > p.AtRiskAbove) {
		return fmt.Errorf("thresholds must descend: healthy %v > needs_attention %v > at_risk %v",
			p.HealthyAbove, p.NeedsAttentionAbove, p.AtRiskAbove)
	}
	if p.NumericRatio <= 1 {
		return fmt.Errorf("numeric ratio %v must exceed 1", p.NumericRatio)
	}
	return p.Scores.validate()
}

func (s LevelScores) validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"ambiguity_high", s.AmbiguityHigh},
		{"ambiguity_medium", s.AmbiguityMedium},
		{"priority_severe", s.PrioritySevere},
		{"priority_moderate", s.PriorityModerate},
		{"temporal_drift", s.TemporalDrift},
		{"temporal_major", s.TemporalMajor},
		{"temporal_minor", s.TemporalMinor},
		{"contradiction_unresolvable", s.ContradictionUnresolvable},
		{"contradiction_severe", s.ContradictionSevere},
		{"contradiction_moderate", s.ContradictionModerate},
		{"hierarchy_mismatch", s.HierarchyMismatch},
		{"hierarchy_advisory", s.HierarchyAdvisory},
		{"constraint_step", s.ConstraintStep},
		{"duplicate_integration", s.DuplicateIntegration},
		{"duplicate_merge", s.DuplicateMerge},
	}
	for _, c := range checks {
		if c.value < -1 || c.value > 0 {
			return fmt.Errorf("score %s is %v, must be in [-1, 0]", c.name, c.value)
		}
	}
	return nil
}

// Classify maps a total score to a health class.
func (p Policy) Classify(score float64) string {
	switch {
	case score > p.HealthyAbove:
		return ClassHealthy
	case score > p.NeedsAttentionAbove:
		return ClassNeedsAttention
	case score > p.AtRiskAbove:
		return ClassAtRisk
	default:
		return ClassCritical
	}
}
