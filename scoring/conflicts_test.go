package scoring

import (
	"strings"
	"testing"

	"github.com/c360studio/reqgraph/requirement"
)

func TestViewOf(t *testing.T) {
	r := &requirement.Requirement{
		LogicalID: "req-api",
		Priority:  250,
		Extensions: map[string]any{
			"numeric_constraint": map[string]any{
				"metric":   "response_time_ms",
				"operator": "<=",
				"value":    float64(200),
				"unit":     "ms",
			},
			"temporal_constraint": map[string]any{
				"timeline": "months",
				"duration": float64(6),
			},
			"exclusive_constraint": map[string]any{
				"category": "deployment",
				"value":    "cloud-only",
			},
			"quality_attributes": []any{"performance", "security"},
		},
	}

	v := ViewOf(r)
	if v.LogicalID != "req-api" || v.Priority != 250 {
		t.Errorf("identity = %q/%d", v.LogicalID, v.Priority)
	}
	if v.Numeric == nil || v.Numeric.Metric != "response_time_ms" || v.Numeric.Value != 200 {
		t.Errorf("Numeric = %+v", v.Numeric)
	}
	if v.Temporal == nil || v.Temporal.Timeline != "months" || v.Temporal.Duration != 6 {
		t.Errorf("Temporal = %+v", v.Temporal)
	}
	if v.Exclusive == nil || v.Exclusive.Value != "cloud-only" {
		t.Errorf("Exclusive = %+v", v.Exclusive)
	}
	if len(v.Qualities) != 2 {
		t.Errorf("Qualities = %v", v.Qualities)
	}

	t.Run("malformed extensions are ignored", func(t *testing.T) {
		v := ViewOf(&requirement.Requirement{
			LogicalID: "req-odd",
			Extensions: map[string]any{
				"numeric_constraint":  "not a map",
				"temporal_constraint": map[string]any{"duration": float64(3)},
				"quality_attributes":  []any{42, ""},
			},
		})
		if v.Numeric != nil || v.Temporal != nil || len(v.Qualities) != 0 {
			t.Errorf("view = %+v", v)
		}
	})
}

func numericView(id string, metric string, value float64) ConstraintView {
	return ConstraintView{
		LogicalID: id,
		Numeric:   &NumericConstraint{Metric: metric, Operator: "<=", Value: value},
	}
}

func TestDetectNumericConflicts(t *testing.T) {
	t.Run("values past the ratio conflict", func(t *testing.T) {
		conflicts := DetectNumericConflicts([]ConstraintView{
			numericView("req-fast", "response_time_ms", 100),
			numericView("req-slow", "response_time_ms", 250),
		}, 2.0)
		if len(conflicts) != 1 {
			t.Fatalf("conflicts = %+v", conflicts)
		}
		c := conflicts[0]
		if c.Req1 != "req-fast" || c.Req2 != "req-slow" {
			t.Errorf("pair = %s/%s", c.Req1, c.Req2)
		}
		if !almost(c.Ratio, 2.5) {
			t.Errorf("Ratio = %v, want 2.5", c.Ratio)
		}
		if c.Metric != "response_time_ms" {
			t.Errorf("Metric = %q", c.Metric)
		}
	})

	t.Run("values within the ratio pass", func(t *testing.T) {
		conflicts := DetectNumericConflicts([]ConstraintView{
			numericView("a", "response_time_ms", 100),
			numericView("b", "response_time_ms", 150),
		}, 2.0)
		if len(conflicts) != 0 {
			t.Errorf("conflicts = %+v", conflicts)
		}
	})

	t.Run("different metrics never conflict", func(t *testing.T) {
		conflicts := DetectNumericConflicts([]ConstraintView{
			numericView("a", "response_time_ms", 100),
			numericView("b", "throughput_rps", 5000),
		}, 2.0)
		if len(conflicts) != 0 {
			t.Errorf("conflicts = %+v", conflicts)
		}
	})

	t.Run("zero values are skipped rather than dividing", func(t *testing.T) {
		conflicts := DetectNumericConflicts([]ConstraintView{
			numericView("a", "cost_usd", 0),
			numericView("b", "cost_usd", 100),
		}, 2.0)
		if len(conflicts) != 0 {
			t.Errorf("conflicts = %+v", conflicts)
		}
	})
}

func TestDetectTemporalConflicts(t *testing.T) {
	temporal := func(id, timeline string, duration int) ConstraintView {
		return ConstraintView{
			LogicalID: id,
			Temporal:  &TemporalConstraint{Timeline: timeline, Duration: duration},
		}
	}

	t.Run("immediate against a long plan", func(t *testing.T) {
		conflicts := DetectTemporalConflicts([]ConstraintView{
			temporal("req-now", "immediate", 0),
			temporal("req-later", "months", 6),
		})
		if len(conflicts) != 1 {
			t.Fatalf("conflicts = %+v", conflicts)
		}
		if conflicts[0].Req1 != "req-now" {
			t.Errorf("Req1 = %q", conflicts[0].Req1)
		}
		if conflicts[0].Detail != "immediate vs 6 months" {
			t.Errorf("Detail = %q", conflicts[0].Detail)
		}
	})

	t.Run("order of the views does not matter", func(t *testing.T) {
		conflicts := DetectTemporalConflicts([]ConstraintView{
			temporal("req-later", "years", 2),
			temporal("req-now", "immediate", 0),
		})
		if len(conflicts) != 1 || conflicts[0].Req1 != "req-now" {
			t.Errorf("conflicts = %+v", conflicts)
		}
	})

	t.Run("immediate against weeks passes", func(t *testing.T) {
		conflicts := DetectTemporalConflicts([]ConstraintView{
			temporal("a", "immediate", 0),
			temporal("b", "weeks", 3),
		})
		if len(conflicts) != 0 {
			t.Errorf("conflicts = %+v", conflicts)
		}
	})
}

func TestDetectExclusiveConflicts(t *testing.T) {
	exclusive := func(id, category, value string) ConstraintView {
		return ConstraintView{
			LogicalID: id,
			Exclusive: &ExclusiveConstraint{Category: category, Value: value},
		}
	}

	t.Run("different picks in one category", func(t *testing.T) {
		conflicts := DetectExclusiveConflicts([]ConstraintView{
			exclusive("req-onprem", "deployment", "on-premise"),
			exclusive("req-cloud", "deployment", "cloud-only"),
		})
		if len(conflicts) != 1 {
			t.Fatalf("conflicts = %+v", conflicts)
		}
		if !strings.Contains(conflicts[0].Detail, "on-premise vs cloud-only") {
			t.Errorf("Detail = %q", conflicts[0].Detail)
		}
	})

	t.Run("agreeing picks pass", func(t *testing.T) {
		conflicts := DetectExclusiveConflicts([]ConstraintView{
			exclusive("a", "architecture", "microservices"),
			exclusive("b", "architecture", "microservices"),
		})
		if len(conflicts) != 0 {
			t.Errorf("conflicts = %+v", conflicts)
		}
	})

	t.Run("unknown categories pass", func(t *testing.T) {
		conflicts := DetectExclusiveConflicts([]ConstraintView{
			exclusive("a", "color_scheme", "dark"),
			exclusive("b", "color_scheme", "light"),
		})
		if len(conflicts) != 0 {
			t.Errorf("conflicts = %+v", conflicts)
		}
	})
}

func TestDetectQualityConflicts(t *testing.T) {
	t.Run("opposing qualities across requirements", func(t *testing.T) {
		conflicts := DetectQualityConflicts([]ConstraintView{
			{LogicalID: "req-fast", Qualities: []string{"performance"}},
			{LogicalID: "req-safe", Qualities: []string{"security"}},
		})
		if len(conflicts) != 1 {
			t.Fatalf("conflicts = %+v", conflicts)
		}
		if conflicts[0].Detail != "quality tradeoff: performance vs security" {
			t.Errorf("Detail = %q", conflicts[0].Detail)
		}
	})

	t.Run("one requirement holding both is its own problem, not a pair conflict", func(t *testing.T) {
		conflicts := DetectQualityConflicts([]ConstraintView{
			{LogicalID: "req-all", Qualities: []string{"performance", "security"}},
		})
		if len(conflicts) != 0 {
			t.Errorf("conflicts = %+v", conflicts)
		}
	})

	t.Run("unrelated qualities pass", func(t *testing.T) {
		conflicts := DetectQualityConflicts([]ConstraintView{
			{LogicalID: "a", Qualities: []string{"performance"}},
			{LogicalID: "b", Qualities: []string{"reliability"}},
		})
		if len(conflicts) != 0 {
			t.Errorf("conflicts = %+v", conflicts)
		}
	})
}

func TestSuggestResolution(t *testing.T) {
	rules := []string{
		RuleNumericThreshold,
		RuleTemporalIncompatibility,
		RuleExclusiveChoice,
		RuleQualityTradeoff,
	}
	for _, rule := range rules {
		t.Run(rule, func(t *testing.T) {
			if s := SuggestResolution(Conflict{Rule: rule}); len(s) == 0 {
				t.Error("no suggestions")
			}
		})
	}

	t.Run("numeric suggestions lead with the midpoint", func(t *testing.T) {
		s := SuggestResolution(Conflict{
			Rule:   RuleNumericThreshold,
			Values: []float64{100, 300},
		})
		if len(s) == 0 || !strings.Contains(s[0], "200") {
			t.Errorf("suggestions = %v", s)
		}
	})

	t.Run("unknown rule", func(t *testing.T) {
		if s := SuggestResolution(Conflict{Rule: "made_up"}); s != nil {
			t.Errorf("suggestions = %v", s)
		}
	})
}
