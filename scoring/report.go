package scoring

import (
	"fmt"
	"sort"
	"time"
)

// Report is the human-facing rendering of a Result: category scores,
// issues sorted most severe first, and remediation options.
type Report struct {
	Type            string             `json:"type"`
	GeneratedAt     time.Time          `json:"generated_at"`
	LogicalID       string             `json:"logical_id"`
	Summary         string             `json:"summary"`
	TotalScore      float64            `json:"total_score"`
	Classification  string             `json:"classification"`
	Categories      map[string]Finding `json:"categories"`
	Issues          []Finding          `json:"issues"`
	Recommendations []string           `json:"recommendations"`
	Weights         map[string]float64 `json:"weights"`
}

// BuildReport renders a Result against the policy that produced it.
func BuildReport(res Result, p Policy, now time.Time) *Report {
	report := &Report{
		Type:           "score_report",
		GeneratedAt:    now.UTC(),
		LogicalID:      res.LogicalID,
		TotalScore:     res.TotalScore,
		Classification: res.Classification,
		Categories:     res.Categories,
		Weights:        p.Weights,
	}

	for _, f := range res.Categories {
		if f.Score < 0 {
			report.Issues = append(report.Issues, f)
		}
	}
	sort.Slice(report.Issues, func(i, j int) bool {
		if report.Issues[i].Score != report.Issues[j].Score {
			return report.Issues[i].Score < report.Issues[j].Score
		}
		return report.Issues[i].Category < report.Issues[j].Category
	})

	report.Summary = summarize(res)
	report.Recommendations = recommend(report.Issues)
	return report
}

func summarize(res Result) string {
	switch res.Classification {
	case ClassHealthy:
		return "no significant friction detected"
	case ClassNeedsAttention:
		return fmt.Sprintf("friction detected (score %.2f); review recommended", res.TotalScore)
	case ClassAtRisk:
		return fmt.Sprintf("substantial friction (score %.2f); intervention recommended", res.TotalScore)
	default:
		return fmt.Sprintf("critical friction (score %.2f); resolve before further work", res.TotalScore)
	}
}

// remediations are per-category follow-ups offered when the category
// scores negative.
var remediations = map[string]string{
	CategoryAmbiguity:     "rewrite the requirement with measurable acceptance criteria",
	CategoryPriority:      "re-rank competing high priority requirements with the stakeholders",
	CategoryTemporal:      "confirm the current wording still matches the original intent",
	CategoryContradiction: "resolve the contradicting requirements before implementation",
	CategoryHierarchy:     "restructure the dependency to follow the hierarchy direction",
	CategoryConstraints:   "bring the requirement back within its structural constraints",
	CategoryDuplicates:    "merge or consolidate with the overlapping requirement",
	CategoryIntegrity:     "repair the dependency graph before trusting any analysis",
}

func recommend(issues []Finding) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range issues {
		if r, ok := remediations[f.Category]; ok && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
		// Conflicts bring rule-specific options with them.
		if conflicts, ok := f.Evidence["conflicts"].([]Conflict); ok {
			for _, c := range conflicts {
				for _, s := range SuggestResolution(c) {
					if !seen[s] {
						seen[s] = true
						out = append(out, s)
					}
				}
			}
		}
	}
	return out
}
