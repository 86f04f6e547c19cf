package scoring

import (
	"fmt"
	"sort"

	"github.com/c360studio/reqgraph/requirement"
)

// Conflict rule identifiers.
const (
	RuleNumericThreshold        = "numeric_threshold"
	RuleTemporalIncompatibility = "temporal_incompatibility"
	RuleExclusiveChoice         = "exclusive_choice"
	RuleQualityTradeoff         = "quality_tradeoff"
)

// NumericConstraint bounds a measurable metric.
type NumericConstraint struct {
	Metric   string  `json:"metric"`
	Operator string  `json:"operator"`
	Value    float64 `json:"value"`
	Unit     string  `json:"unit,omitempty"`
}

// TemporalConstraint states when a requirement must be met.
// Timeline is one of immediate, days, weeks, months, years.
type TemporalConstraint struct {
	Timeline string `json:"timeline"`
	Duration int    `json:"duration"`
}

// ExclusiveConstraint picks one option of a mutually exclusive
// category.
type ExclusiveConstraint struct {
	Category string `json:"category"`
	Value    string `json:"value"`
}

// ConstraintView is the conflict-relevant projection of one
// requirement, read out of its extension map.
type ConstraintView struct {
	LogicalID string
	Priority  int
	Numeric   *NumericConstraint
	Temporal  *TemporalConstraint
	Exclusive *ExclusiveConstraint
	Qualities []string
}

// ViewOf projects a requirement's extension map onto the constraint
// fields the conflict rules understand. Unknown or malformed entries
// are ignored.
func ViewOf(r *requirement.Requirement) ConstraintView {
	v := ConstraintView{LogicalID: r.LogicalID, Priority: r.Priority}

	if m, ok := r.Extensions["numeric_constraint"].(map[string]any); ok {
		nc := &NumericConstraint{
			Metric:   stringField(m, "metric"),
			Operator: stringField(m, "operator"),
			Unit:     stringField(m, "unit"),
		}
		nc.Value, _ = floatField(m, "value")
		if nc.Metric != "" {
			v.Numeric = nc
		}
	}
	if m, ok := r.Extensions["temporal_constraint"].(map[string]any); ok {
		tc := &TemporalConstraint{Timeline: stringField(m, "timeline")}
		if d, ok := floatField(m, "duration"); ok {
			tc.Duration = int(d)
		}
		if tc.Timeline != "" {
			v.Temporal = tc
		}
	}
	if m, ok := r.Extensions["exclusive_constraint"].(map[string]any); ok {
		ec := &ExclusiveConstraint{
			Category: stringField(m, "category"),
			Value:    stringField(m, "value"),
		}
		if ec.Category != "" && ec.Value != "" {
			v.Exclusive = ec
		}
	}
	if raw, ok := r.Extensions["quality_attributes"].([]any); ok {
		for _, q := range raw {
			if s, ok := q.(string); ok && s != "" {
				v.Qualities = append(v.Qualities, s)
			}
		}
	}
	return v
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func floatField(m map[string]any, key string) (float64, bool) {
	switch n := m[key].(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// Conflict is one detected contradiction between two requirements.
type Conflict struct {
	Rule   string    `json:"rule"`
	Req1   string    `json:"req1"`
	Req2   string    `json:"req2"`
	Metric string    `json:"metric,omitempty"`
	Values []float64 `json:"values,omitempty"`
	Ratio  float64   `json:"ratio,omitempty"`
	Detail string    `json:"detail"`
}

// DetectConflicts runs every conflict rule over the given views.
// ratio is the numeric threshold factor; pass Policy.NumericRatio.
func DetectConflicts(views []ConstraintView, ratio float64) []Conflict {
	var conflicts []Conflict
	conflicts = append(conflicts, DetectNumericConflicts(views, ratio)...)
	conflicts = append(conflicts, DetectTemporalConflicts(views)...)
	conflicts = append(conflicts, DetectExclusiveConflicts(views)...)
	conflicts = append(conflicts, DetectQualityConflicts(views)...)
	return conflicts
}

// DetectNumericConflicts flags pairs that bound the same metric with
// values further apart than the threshold ratio.
func DetectNumericConflicts(views []ConstraintView, ratio float64) []Conflict {
	byMetric := make(map[string][]ConstraintView)
	for _, v := range views {
		if v.Numeric != nil {
			byMetric[v.Numeric.Metric] = append(byMetric[v.Numeric.Metric], v)
		}
	}

	metrics := make([]string, 0, len(byMetric))
	for m := range byMetric {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	var conflicts []Conflict
	for _, metric := range metrics {
		group := byMetric[metric]
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			return group[i].Numeric.Value < group[j].Numeric.Value
		})
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				lo, hi := group[i].Numeric.Value, group[j].Numeric.Value
				if lo <= 0 || hi <= lo*ratio {
					continue
				}
				conflicts = append(conflicts, Conflict{
					Rule:   RuleNumericThreshold,
					Req1:   group[i].LogicalID,
					Req2:   group[j].LogicalID,
					Metric: metric,
					Values: []float64{lo, hi},
					Ratio:  hi / lo,
					Detail: fmt.Sprintf("%s: %v vs %v (ratio %.1f)", metric, lo, hi, hi/lo),
				})
			}
		}
	}
	return conflicts
}

// DetectTemporalConflicts flags an immediate demand paired with a
// months-or-years plan for the same system.
func DetectTemporalConflicts(views []ConstraintView) []Conflict {
	var timed []ConstraintView
	for _, v := range views {
		if v.Temporal != nil {
			timed = append(timed, v)
		}
	}

	longTerm := func(t *TemporalConstraint) bool {
		return t.Timeline == "months" || t.Timeline == "years"
	}

	var conflicts []Conflict
	for i := 0; i < len(timed); i++ {
		for j := i + 1; j < len(timed); j++ {
			a, b := timed[i], timed[j]
			switch {
			case a.Temporal.Timeline == "immediate" && longTerm(b.Temporal):
				conflicts = append(conflicts, Conflict{
					Rule:   RuleTemporalIncompatibility,
					Req1:   a.LogicalID,
					Req2:   b.LogicalID,
					Detail: fmt.Sprintf("immediate vs %d %s", b.Temporal.Duration, b.Temporal.Timeline),
				})
			case b.Temporal.Timeline == "immediate" && longTerm(a.Temporal):
				conflicts = append(conflicts, Conflict{
					Rule:   RuleTemporalIncompatibility,
					Req1:   b.LogicalID,
					Req2:   a.LogicalID,
					Detail: fmt.Sprintf("immediate vs %d %s", a.Temporal.Duration, a.Temporal.Timeline),
				})
			}
		}
	}
	return conflicts
}

// exclusiveCategories are the choices that cannot coexist within one
// system.
var exclusiveCategories = map[string][]string{
	"deployment":   {"on-premise", "cloud-only", "hybrid"},
	"architecture": {"monolithic", "microservices", "serverless"},
	"payment":      {"free", "subscription", "one-time"},
}

// DetectExclusiveConflicts flags differing picks within one exclusive
// category.
func DetectExclusiveConflicts(views []ConstraintView) []Conflict {
	byCategory := make(map[string][]ConstraintView)
	for _, v := range views {
		if v.Exclusive != nil {
			byCategory[v.Exclusive.Category] = append(byCategory[v.Exclusive.Category], v)
		}
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var conflicts []Conflict
	for _, category := range categories {
		if _, known := exclusiveCategories[category]; !known {
			continue
		}
		group := byCategory[category]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				v1, v2 := group[i].Exclusive.Value, group[j].Exclusive.Value
				if v1 == v2 {
					continue
				}
				conflicts = append(conflicts, Conflict{
					Rule:   RuleExclusiveChoice,
					Req1:   group[i].LogicalID,
					Req2:   group[j].LogicalID,
					Detail: fmt.Sprintf("exclusive %s: %s vs %s", category, v1, v2),
				})
			}
		}
	}
	return conflicts
}

// qualityTradeoffs are attribute pairs that pull against each other.
var qualityTradeoffs = [][2]string{
	{"performance", "security"},
	{"usability", "security"},
	{"cost", "reliability"},
	{"flexibility", "simplicity"},
}

// DetectQualityConflicts flags requirement pairs demanding opposing
// quality attributes.
func DetectQualityConflicts(views []ConstraintView) []Conflict {
	byQuality := make(map[string][]string)
	for _, v := range views {
		for _, q := range v.Qualities {
			byQuality[q] = append(byQuality[q], v.LogicalID)
		}
	}

	var conflicts []Conflict
	for _, pair := range qualityTradeoffs {
		q1, q2 := pair[0], pair[1]
		for _, id1 := range byQuality[q1] {
			for _, id2 := range byQuality[q2] {
				if id1 == id2 {
					continue
				}
				conflicts = append(conflicts, Conflict{
					Rule:   RuleQualityTradeoff,
					Req1:   id1,
					Req2:   id2,
					Detail: fmt.Sprintf("quality tradeoff: %s vs %s", q1, q2),
				})
			}
		}
	}
	return conflicts
}

// SuggestResolution returns resolution options for one conflict,
// specific to its rule.
func SuggestResolution(c Conflict) []string {
	switch c.Rule {
	case RuleNumericThreshold:
		suggestions := []string{
			"keep the value from the higher-priority requirement",
			"phase the constraint: start loose, tighten over time",
			"split the value by context, e.g. normal vs peak load",
		}
		if len(c.Values) == 2 {
			mid := (c.Values[0] + c.Values[1]) / 2
			suggestions = append([]string{fmt.Sprintf("adopt the midpoint of the conflicting values: %v", mid)}, suggestions...)
		}
		return suggestions
	case RuleTemporalIncompatibility:
		return []string{
			"phase the delivery with incremental releases",
			"start from a minimal scope and extend",
			"run the work streams in parallel",
			"reorder priorities and adjust the timeline",
		}
	case RuleExclusiveChoice:
		return []string{
			"consider a hybrid solution",
			"implement per context, e.g. per user type",
			"define a migration path from one choice to the other",
			"refine both requirements to expose common ground",
		}
	case RuleQualityTradeoff:
		return []string{
			"rank the quality attributes explicitly",
			"look for an architecture pattern that serves both",
			"make the quality scenarios concrete",
			"define measurable quality metrics",
		}
	}
	return nil
}
