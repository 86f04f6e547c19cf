package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/c360studio/reqgraph/hierarchy"
	"github.com/c360studio/reqgraph/requirement"
)

// Subject is everything the detectors may look at for one requirement.
// The caller assembles it from storage, the dependency graph, and the
// search collaborator; detectors never do I/O.
type Subject struct {
	Requirement *requirement.Requirement

	// VersionCount is the number of stored versions.
	VersionCount int
	// FirstTitle is the title of version 0, for drift detection.
	FirstTitle string

	// InterpretationCount comes from the search collaborator: how many
	// distinct refinements exist for the same stated intent.
	InterpretationCount int

	// HighPriorityCount is the number of live high-priority
	// requirements in the project, this one included.
	HighPriorityCount int
	// ResourceConflict marks competing claims on the same resources or
	// time window.
	ResourceConflict bool

	// HierarchyViolations are live-edge violations touching this
	// requirement.
	HierarchyViolations []*hierarchy.Violation

	// ConstraintViolations are breached structural constraints, e.g.
	// max_depth.
	ConstraintViolations []string

	// Conflicts are detected contradictions involving this
	// requirement.
	Conflicts []Conflict

	// DuplicateSimilarity is the best similarity against any other
	// requirement, 0 when none.
	DuplicateSimilarity float64
	// Duplicates are the matches behind DuplicateSimilarity.
	Duplicates []Match

	// SelfReference and CyclePath report graph integrity breaches
	// found out of band. AddEdge prevents both, so either being set
	// means stored data predates or bypassed validation.
	SelfReference bool
	CyclePath     []string
}

// Finding is one category's verdict.
type Finding struct {
	Category string         `json:"category"`
	Score    float64        `json:"score"`
	Level    string         `json:"level"`
	Message  string         `json:"message"`
	Evidence map[string]any `json:"evidence,omitempty"`
}

// Result is the aggregate verdict for one requirement.
type Result struct {
	LogicalID  string             `json:"logical_id"`
	Categories map[string]Finding `json:"categories"`

	// FrictionScore is the weighted blend of the friction categories.
	FrictionScore float64 `json:"friction_score"`
	// ViolationScore is the most severe violation category score.
	ViolationScore float64 `json:"violation_score"`
	// TotalScore is the worse of the two.
	TotalScore     float64 `json:"total_score"`
	Classification string  `json:"classification"`
}

// Detector pairs a category with its pure detection function.
type Detector struct {
	Category string
	Detect   func(Subject, Policy) Finding
}

// Detectors returns the full detector set in evaluation order.
func Detectors() []Detector {
	return []Detector{
		{CategoryAmbiguity, detectAmbiguity},
		{CategoryPriority, detectPriority},
		{CategoryTemporal, detectTemporal},
		{CategoryContradiction, detectContradiction},
		{CategoryHierarchy, detectHierarchy},
		{CategoryConstraints, detectConstraints},
		{CategoryDuplicates, detectDuplicates},
		{CategoryIntegrity, detectIntegrity},
	}
}

// Score runs every detector and aggregates. Friction categories blend
// by normalized weight; violation categories never average away, the
// minimum wins. The total is the worse of the two, so one critical
// violation classifies the requirement critical no matter how clean
// the rest is.
func Score(s Subject, p Policy) Result {
	res := Result{
		Categories: make(map[string]Finding),
	}
	if s.Requirement != nil {
		res.LogicalID = s.Requirement.LogicalID
	}

	var weighted, weightSum float64
	violation := 0.0
	for _, d := range Detectors() {
		f := d.Detect(s, p)
		f.Category = d.Category
		res.Categories[d.Category] = f

		if w, ok := p.Weights[d.Category]; ok {
			weighted += f.Score * w
			weightSum += w
		} else if f.Score < violation {
			violation = f.Score
		}
	}
	if weightSum > 0 {
		res.FrictionScore = weighted / weightSum
	}
	res.ViolationScore = violation
	res.TotalScore = math.Min(res.FrictionScore, res.ViolationScore)
	res.Classification = p.Classify(res.TotalScore)
	return res
}

func detectAmbiguity(s Subject, p Policy) Finding {
	terms := ambiguousTermsIn(s.Requirement, p.AmbiguousTerms)

	count := s.InterpretationCount
	if count == 0 {
		// Vocabulary alone signals interpretation room.
		switch {
		case len(terms) >= 2:
			count = 2
		case len(terms) == 1:
			count = 1
		}
	}

	evidence := map[string]any{"interpretation_count": count}
	if len(terms) > 0 {
		evidence["ambiguous_terms"] = terms
	}
	switch {
	case count >= 2:
		return Finding{Score: p.Scores.AmbiguityHigh, Level: "high", Message: "requirement has multiple plausible interpretations", Evidence: evidence}
	case count == 1:
		return Finding{Score: p.Scores.AmbiguityMedium, Level: "medium", Message: "requirement wording is ambiguous", Evidence: evidence}
	default:
		return Finding{Score: 0, Level: "none", Message: "requirement is unambiguous"}
	}
}

func ambiguousTermsIn(r *requirement.Requirement, vocabulary []string) []string {
	if r == nil {
		return nil
	}
	text := strings.ToLower(r.Title + " " + r.Description)
	var found []string
	for _, term := range vocabulary {
		if term != "" && strings.Contains(text, strings.ToLower(term)) {
			found = append(found, term)
		}
	}
	sort.Strings(found)
	return found
}

func detectPriority(s Subject, p Policy) Finding {
	evidence := map[string]any{
		"high_priority_count": s.HighPriorityCount,
		"resource_conflict":   s.ResourceConflict,
	}
	switch {
	case s.HighPriorityCount > 2 && s.ResourceConflict:
		return Finding{Score: p.Scores.PrioritySevere, Level: "severe", Message: "multiple high priority requirements compete for the same resources", Evidence: evidence}
	case s.HighPriorityCount > 1:
		return Finding{Score: p.Scores.PriorityModerate, Level: "moderate", Message: "several high priority requirements exist", Evidence: evidence}
	default:
		return Finding{Score: 0, Level: "none", Message: "priorities are balanced"}
	}
}

func detectTemporal(s Subject, p Policy) Finding {
	steps := s.VersionCount - 1
	if steps < 0 {
		steps = 0
	}
	pivot := hasMajorPivot(s)

	evidence := map[string]any{
		"evolution_steps": steps,
		"major_pivot":     pivot,
	}
	switch {
	case steps >= 2 && pivot:
		return Finding{Score: p.Scores.TemporalDrift, Level: "complete_drift", Message: "requirement has drifted beyond its original intent", Evidence: evidence}
	case steps >= 2:
		return Finding{Score: p.Scores.TemporalMajor, Level: "major_change", Message: "requirement has changed substantially", Evidence: evidence}
	case steps == 1:
		return Finding{Score: p.Scores.TemporalMinor, Level: "minor_change", Message: "requirement has minor revisions", Evidence: evidence}
	default:
		return Finding{Score: 0, Level: "stable", Message: "requirement is stable"}
	}
}

// hasMajorPivot reports qualitative divergence from the original
// intent: an explicit marker in the extension map, or a current title
// sharing no substantial word with the first version's title.
func hasMajorPivot(s Subject) bool {
	if s.Requirement == nil {
		return false
	}
	if flag, ok := s.Requirement.Extensions["major_pivot"].(bool); ok && flag {
		return true
	}
	if s.FirstTitle == "" || s.FirstTitle == s.Requirement.Title {
		return false
	}
	first := substantialWords(s.FirstTitle)
	for w := range substantialWords(s.Requirement.Title) {
		if first[w] {
			return false
		}
	}
	return true
}

func substantialWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if len(w) >= 4 {
			words[w] = true
		}
	}
	return words
}

func detectContradiction(s Subject, p Policy) Finding {
	count := len(s.Conflicts)
	evidence := map[string]any{"contradiction_count": count}
	if count > 0 {
		evidence["conflicts"] = s.Conflicts
	}
	switch {
	case count >= 3:
		return Finding{Score: p.Scores.ContradictionUnresolvable, Level: "unresolvable", Message: "contradictions are unlikely to be resolvable as stated", Evidence: evidence}
	case count == 2:
		return Finding{Score: p.Scores.ContradictionSevere, Level: "severe", Message: "serious contradictions exist", Evidence: evidence}
	case count == 1:
		return Finding{Score: p.Scores.ContradictionModerate, Level: "moderate", Message: "requirements contradict each other", Evidence: evidence}
	default:
		return Finding{Score: 0, Level: "none", Message: "no contradictions detected"}
	}
}

func detectHierarchy(s Subject, p Policy) Finding {
	for _, v := range s.HierarchyViolations {
		if v.Critical() {
			return Finding{
				Score:   -1.0,
				Level:   "critical",
				Message: "a dependency violates the hierarchy direction",
				Evidence: map[string]any{
					"violations": s.HierarchyViolations,
				},
			}
		}
	}

	if r := s.Requirement; r != nil {
		if detected, ok := hierarchy.DetectLevel(r.Title); ok && detected != r.HierarchyLevel {
			return Finding{
				Score:   p.Scores.HierarchyMismatch,
				Level:   "title_level_mismatch",
				Message: "title does not match the declared hierarchy level",
				Evidence: map[string]any{
					"title":          r.Title,
					"declared_level": int(r.HierarchyLevel),
					"detected_level": int(detected),
				},
			}
		}
	}

	if len(s.HierarchyViolations) > 0 {
		return Finding{
			Score:   p.Scores.HierarchyAdvisory,
			Level:   "advisory",
			Message: "a dependency skips hierarchy levels",
			Evidence: map[string]any{
				"violations": s.HierarchyViolations,
			},
		}
	}
	return Finding{Score: 0, Level: "none", Message: "hierarchy is consistent"}
}

func detectConstraints(s Subject, p Policy) Finding {
	n := len(s.ConstraintViolations)
	if n == 0 {
		return Finding{Score: 0, Level: "none", Message: "no constraint violations"}
	}
	score := math.Max(-1.0, p.Scores.ConstraintStep*float64(n))
	return Finding{
		Score:   score,
		Level:   "violations",
		Message: fmt.Sprintf("%d constraint violations detected", n),
		Evidence: map[string]any{
			"violations": s.ConstraintViolations,
			"count":      n,
		},
	}
}

func detectDuplicates(s Subject, p Policy) Finding {
	evidence := map[string]any{"similarity": s.DuplicateSimilarity}
	if len(s.Duplicates) > 0 {
		evidence["matches"] = s.Duplicates
	}
	switch {
	case s.DuplicateSimilarity >= 0.95:
		return Finding{Score: p.Scores.DuplicateIntegration, Level: "integration_required", Message: "a near-identical requirement exists and must be integrated", Evidence: evidence}
	case s.DuplicateSimilarity >= 0.9:
		return Finding{Score: p.Scores.DuplicateMerge, Level: "merge_suggested", Message: "a similar requirement exists; consider merging", Evidence: evidence}
	default:
		return Finding{Score: 0, Level: "none", Message: "no duplicates detected"}
	}
}

func detectIntegrity(s Subject, _ Policy) Finding {
	if s.SelfReference {
		return Finding{
			Score:    -1.0,
			Level:    "self_reference",
			Message:  "requirement depends on itself",
			Evidence: map[string]any{"self_reference": true},
		}
	}
	if len(s.CyclePath) > 0 {
		return Finding{
			Score:   -1.0,
			Level:   "circular_reference",
			Message: "dependency cycle detected: " + strings.Join(s.CyclePath, " -> "),
			Evidence: map[string]any{
				"cycle_path": s.CyclePath,
			},
		}
	}
	return Finding{Score: 0, Level: "none", Message: "graph integrity holds"}
}
