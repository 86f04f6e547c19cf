package scoring

import (
	"math"
	"testing"

	"github.com/c360studio/reqgraph/hierarchy"
	"github.com/c360studio/reqgraph/requirement"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func cleanSubject() Subject {
	return Subject{
		Requirement: &requirement.Requirement{
			LogicalID:      "req-digest",
			Title:          "Send weekly digest email",
			Priority:       100,
			HierarchyLevel: hierarchy.LevelTask,
		},
		VersionCount: 1,
		FirstTitle:   "Send weekly digest email",
	}
}

func TestDetectAmbiguity(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name      string
		title     string
		count     int
		wantScore float64
		wantLevel string
	}{
		{"explicit interpretation count", "Send digest", 3, -0.6, "high"},
		{"single interpretation", "Send digest", 1, -0.3, "medium"},
		{"two vocabulary terms", "An efficient and intuitive digest", 0, -0.6, "high"},
		{"one vocabulary term", "An efficient digest", 0, -0.3, "medium"},
		{"clean wording", "Send weekly digest email", 0, 0, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cleanSubject()
			s.Requirement.Title = tt.title
			s.InterpretationCount = tt.count
			f := detectAmbiguity(s, p)
			if !almost(f.Score, tt.wantScore) {
				t.Errorf("Score = %v, want %v", f.Score, tt.wantScore)
			}
			if f.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", f.Level, tt.wantLevel)
			}
		})
	}

	t.Run("found terms surface as evidence", func(t *testing.T) {
		s := cleanSubject()
		s.Requirement.Title = "Optimal and user-friendly export"
		f := detectAmbiguity(s, p)
		terms, ok := f.Evidence["ambiguous_terms"].([]string)
		if !ok || len(terms) != 2 {
			t.Fatalf("ambiguous_terms = %v", f.Evidence["ambiguous_terms"])
		}
	})
}

func TestDetectPriority(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		conflict  bool
		wantScore float64
		wantLevel string
	}{
		{"competing high priorities", 3, true, -0.7, "severe"},
		{"several high priorities", 2, false, -0.4, "moderate"},
		{"three without conflict is still moderate", 3, false, -0.4, "moderate"},
		{"single high priority", 1, false, 0, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cleanSubject()
			s.HighPriorityCount = tt.count
			s.ResourceConflict = tt.conflict
			f := detectPriority(s, DefaultPolicy())
			if !almost(f.Score, tt.wantScore) {
				t.Errorf("Score = %v, want %v", f.Score, tt.wantScore)
			}
			if f.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", f.Level, tt.wantLevel)
			}
		})
	}
}

func TestDetectTemporal(t *testing.T) {
	tests := []struct {
		name      string
		versions  int
		pivot     bool
		wantScore float64
		wantLevel string
	}{
		{"drifted beyond recognition", 3, true, -0.8, "complete_drift"},
		{"major churn", 3, false, -0.5, "major_change"},
		{"single revision", 2, false, -0.3, "minor_change"},
		{"stable", 1, false, 0, "stable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cleanSubject()
			s.VersionCount = tt.versions
			if tt.pivot {
				s.Requirement.Extensions = map[string]any{"major_pivot": true}
			}
			f := detectTemporal(s, DefaultPolicy())
			if !almost(f.Score, tt.wantScore) {
				t.Errorf("Score = %v, want %v", f.Score, tt.wantScore)
			}
			if f.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", f.Level, tt.wantLevel)
			}
		})
	}
}

func TestHasMajorPivot(t *testing.T) {
	tests := []struct {
		name       string
		firstTitle string
		title      string
		extensions map[string]any
		want       bool
	}{
		{"explicit marker", "Send digest", "Send digest", map[string]any{"major_pivot": true}, true},
		{"titles share nothing", "Send weekly digest email", "Launch realtime chat", nil, true},
		{"titles share a word", "Send weekly digest email", "Redesign digest layout", nil, false},
		{"unchanged title", "Send digest", "Send digest", nil, false},
		{"unknown first title", "", "Send digest", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cleanSubject()
			s.FirstTitle = tt.firstTitle
			s.Requirement.Title = tt.title
			s.Requirement.Extensions = tt.extensions
			if got := hasMajorPivot(s); got != tt.want {
				t.Errorf("hasMajorPivot = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectContradiction(t *testing.T) {
	conflict := Conflict{Rule: RuleQualityTradeoff, Req1: "a", Req2: "b", Detail: "performance vs security"}
	tests := []struct {
		name      string
		conflicts int
		wantScore float64
		wantLevel string
	}{
		{"unresolvable", 3, -0.9, "unresolvable"},
		{"severe", 2, -0.6, "severe"},
		{"moderate", 1, -0.4, "moderate"},
		{"clean", 0, 0, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cleanSubject()
			for i := 0; i < tt.conflicts; i++ {
				s.Conflicts = append(s.Conflicts, conflict)
			}
			f := detectContradiction(s, DefaultPolicy())
			if !almost(f.Score, tt.wantScore) {
				t.Errorf("Score = %v, want %v", f.Score, tt.wantScore)
			}
			if f.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", f.Level, tt.wantLevel)
			}
		})
	}
}

func TestDetectHierarchy(t *testing.T) {
	t.Run("critical violation pins the category at -1", func(t *testing.T) {
		s := cleanSubject()
		s.HierarchyViolations = []*hierarchy.Violation{
			hierarchy.Check(hierarchy.LevelComponent, hierarchy.LevelComponent, "A service", "B service"),
		}
		f := detectHierarchy(s, DefaultPolicy())
		if !almost(f.Score, -1.0) {
			t.Errorf("Score = %v, want -1", f.Score)
		}
		if f.Level != "critical" {
			t.Errorf("Level = %q, want critical", f.Level)
		}
	})

	t.Run("title contradicting the declared level", func(t *testing.T) {
		s := cleanSubject()
		s.Requirement.Title = "Implement login flow"
		s.Requirement.HierarchyLevel = hierarchy.LevelComponent
		f := detectHierarchy(s, DefaultPolicy())
		if !almost(f.Score, -0.3) {
			t.Errorf("Score = %v, want -0.3", f.Score)
		}
		if f.Level != "title_level_mismatch" {
			t.Errorf("Level = %q, want title_level_mismatch", f.Level)
		}
	})

	t.Run("skip-level advisory", func(t *testing.T) {
		s := cleanSubject()
		s.HierarchyViolations = []*hierarchy.Violation{
			hierarchy.Check(hierarchy.LevelTask, hierarchy.LevelModule, "Send weekly digest email", "Messaging area"),
		}
		f := detectHierarchy(s, DefaultPolicy())
		if !almost(f.Score, -0.3) {
			t.Errorf("Score = %v, want -0.3", f.Score)
		}
		if f.Level != "advisory" {
			t.Errorf("Level = %q, want advisory", f.Level)
		}
	})

	t.Run("consistent hierarchy", func(t *testing.T) {
		f := detectHierarchy(cleanSubject(), DefaultPolicy())
		if f.Score != 0 || f.Level != "none" {
			t.Errorf("finding = %+v", f)
		}
	})
}

func TestDetectConstraints(t *testing.T) {
	tests := []struct {
		name       string
		violations int
		wantScore  float64
	}{
		{"none", 0, 0},
		{"one", 1, -0.2},
		{"three", 3, -0.6},
		{"capped at -1", 6, -1.0},
		{"beyond the cap", 9, -1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cleanSubject()
			for i := 0; i < tt.violations; i++ {
				s.ConstraintViolations = append(s.ConstraintViolations, "max_depth")
			}
			f := detectConstraints(s, DefaultPolicy())
			if !almost(f.Score, tt.wantScore) {
				t.Errorf("Score = %v, want %v", f.Score, tt.wantScore)
			}
		})
	}
}

func TestDetectDuplicates(t *testing.T) {
	tests := []struct {
		name       string
		similarity float64
		wantScore  float64
		wantLevel  string
	}{
		{"near identical", 0.96, -0.8, "integration_required"},
		{"exactly the integration bound", 0.95, -0.8, "integration_required"},
		{"similar", 0.92, -0.3, "merge_suggested"},
		{"exactly the merge bound", 0.9, -0.3, "merge_suggested"},
		{"distinct", 0.5, 0, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cleanSubject()
			s.DuplicateSimilarity = tt.similarity
			f := detectDuplicates(s, DefaultPolicy())
			if !almost(f.Score, tt.wantScore) {
				t.Errorf("Score = %v, want %v", f.Score, tt.wantScore)
			}
			if f.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", f.Level, tt.wantLevel)
			}
		})
	}
}

func TestDetectIntegrity(t *testing.T) {
	t.Run("self reference", func(t *testing.T) {
		s := cleanSubject()
		s.SelfReference = true
		f := detectIntegrity(s, DefaultPolicy())
		if !almost(f.Score, -1.0) || f.Level != "self_reference" {
			t.Errorf("finding = %+v", f)
		}
	})

	t.Run("cycle carries its path", func(t *testing.T) {
		s := cleanSubject()
		s.CyclePath = []string{"a", "b", "a"}
		f := detectIntegrity(s, DefaultPolicy())
		if !almost(f.Score, -1.0) || f.Level != "circular_reference" {
			t.Errorf("finding = %+v", f)
		}
		if f.Message != "dependency cycle detected: a -> b -> a" {
			t.Errorf("Message = %q", f.Message)
		}
	})

	t.Run("intact graph", func(t *testing.T) {
		f := detectIntegrity(cleanSubject(), DefaultPolicy())
		if f.Score != 0 {
			t.Errorf("Score = %v, want 0", f.Score)
		}
	})
}

func TestScore(t *testing.T) {
	p := DefaultPolicy()

	t.Run("a clean requirement scores zero everywhere and is healthy", func(t *testing.T) {
		res := Score(cleanSubject(), p)
		for category, f := range res.Categories {
			if f.Score != 0 {
				t.Errorf("category %s score = %v, want 0", category, f.Score)
			}
		}
		if res.TotalScore != 0 {
			t.Errorf("TotalScore = %v, want 0", res.TotalScore)
		}
		if res.Classification != ClassHealthy {
			t.Errorf("Classification = %q, want healthy", res.Classification)
		}
	})

	t.Run("a critical hierarchy violation classifies critical", func(t *testing.T) {
		s := cleanSubject()
		s.HierarchyViolations = []*hierarchy.Violation{
			hierarchy.Check(hierarchy.LevelModule, hierarchy.LevelTask, "Messaging area", "Send weekly digest email"),
		}
		res := Score(s, p)
		if !almost(res.Categories[CategoryHierarchy].Score, -1.0) {
			t.Errorf("hierarchy score = %v, want -1", res.Categories[CategoryHierarchy].Score)
		}
		if !almost(res.TotalScore, -1.0) {
			t.Errorf("TotalScore = %v, want -1", res.TotalScore)
		}
		if res.Classification != ClassCritical {
			t.Errorf("Classification = %q, want critical", res.Classification)
		}
	})

	t.Run("friction categories blend by weight", func(t *testing.T) {
		s := cleanSubject()
		s.InterpretationCount = 2
		s.Conflicts = []Conflict{{Rule: RuleQualityTradeoff, Req1: "a", Req2: "b"}}
		res := Score(s, p)

		// ambiguity -0.6 at weight 0.2, contradiction -0.4 at weight
		// 0.3, over a weight sum of 1.0.
		want := (-0.6*0.2 + -0.4*0.3) / 1.0
		if !almost(res.FrictionScore, want) {
			t.Errorf("FrictionScore = %v, want %v", res.FrictionScore, want)
		}
		if !almost(res.TotalScore, want) {
			t.Errorf("TotalScore = %v, want %v", res.TotalScore, want)
		}
		if res.Classification != ClassNeedsAttention {
			t.Errorf("Classification = %q, want needs_attention", res.Classification)
		}
	})

	t.Run("violations do not blend away", func(t *testing.T) {
		s := cleanSubject()
		s.DuplicateSimilarity = 0.96
		res := Score(s, p)
		if !almost(res.ViolationScore, -0.8) {
			t.Errorf("ViolationScore = %v, want -0.8", res.ViolationScore)
		}
		if !almost(res.TotalScore, -0.8) {
			t.Errorf("TotalScore = %v, want -0.8", res.TotalScore)
		}
		if res.Classification != ClassCritical {
			t.Errorf("Classification = %q, want critical", res.Classification)
		}
	})
}

func TestScoresComeFromPolicy(t *testing.T) {
	p := DefaultPolicy()
	p.Scores.AmbiguityHigh = -0.9
	p.Scores.ContradictionModerate = -0.1
	p.Scores.ConstraintStep = -0.5
	p.Scores.DuplicateIntegration = -0.4

	t.Run("ambiguity", func(t *testing.T) {
		s := cleanSubject()
		s.InterpretationCount = 3
		if f := detectAmbiguity(s, p); !almost(f.Score, -0.9) {
			t.Errorf("Score = %v, want overridden -0.9", f.Score)
		}
	})

	t.Run("contradiction", func(t *testing.T) {
		s := cleanSubject()
		s.Conflicts = []Conflict{{Rule: RuleQualityTradeoff, Req1: "a", Req2: "b"}}
		if f := detectContradiction(s, p); !almost(f.Score, -0.1) {
			t.Errorf("Score = %v, want overridden -0.1", f.Score)
		}
	})

	t.Run("constraint step scales and floors at -1", func(t *testing.T) {
		s := cleanSubject()
		s.ConstraintViolations = []string{"max_depth"}
		if f := detectConstraints(s, p); !almost(f.Score, -0.5) {
			t.Errorf("Score = %v, want overridden -0.5", f.Score)
		}
		s.ConstraintViolations = []string{"a", "b", "c"}
		if f := detectConstraints(s, p); !almost(f.Score, -1.0) {
			t.Errorf("Score = %v, want floor -1", f.Score)
		}
	})

	t.Run("duplicates", func(t *testing.T) {
		s := cleanSubject()
		s.DuplicateSimilarity = 0.96
		if f := detectDuplicates(s, p); !almost(f.Score, -0.4) {
			t.Errorf("Score = %v, want overridden -0.4", f.Score)
		}
	})

	t.Run("critical hierarchy stays pinned", func(t *testing.T) {
		s := cleanSubject()
		s.HierarchyViolations = []*hierarchy.Violation{
			hierarchy.Check(hierarchy.LevelModule, hierarchy.LevelTask, "Messaging area", "Send weekly digest email"),
		}
		if f := detectHierarchy(s, p); !almost(f.Score, -1.0) {
			t.Errorf("Score = %v, want pinned -1", f.Score)
		}
	})
}
