package hierarchy

import (
	"strings"
	"testing"
)

func TestCanDependOn(t *testing.T) {
	tests := []struct {
		from Level
		to   Level
		want bool
	}{
		// Upward edges are allowed
		{LevelTask, LevelComponent, true},
		{LevelTask, LevelVision, true},
		{LevelComponent, LevelModule, true},
		{LevelArchitecture, LevelVision, true},

		// Same level is not
		{LevelModule, LevelModule, false},
		{LevelVision, LevelVision, false},

		// Downward edges are not
		{LevelVision, LevelTask, false},
		{LevelModule, LevelComponent, false},
	}

	for _, tt := range tests {
		name := tt.from.String() + "_on_" + tt.to.String()
		t.Run(name, func(t *testing.T) {
			if got := CanDependOn(tt.from, tt.to); got != tt.want {
				t.Errorf("CanDependOn(%v, %v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestCheck_CriticalViolation(t *testing.T) {
	v := Check(LevelVision, LevelTask, "System vision", "Password validation task")
	if v == nil {
		t.Fatal("Check() = nil, want critical violation")
	}
	if !v.Critical() {
		t.Errorf("Severity = %q, want %q", v.Severity, SeverityCritical)
	}
	if v.FromLevel != LevelVision || v.ToLevel != LevelTask {
		t.Errorf("levels = (%v, %v), want (vision, task)", v.FromLevel, v.ToLevel)
	}
	if !strings.Contains(v.Explanation, "cannot depend on") {
		t.Errorf("Explanation = %q, want rule statement", v.Explanation)
	}
	if v.Remediation == "" {
		t.Error("Remediation is empty")
	}
}

func TestCheck_SameLevelIsCritical(t *testing.T) {
	v := Check(LevelModule, LevelModule, "Auth module", "Billing module")
	if v == nil || !v.Critical() {
		t.Fatalf("Check(same level) = %+v, want critical violation", v)
	}
}

func TestCheck_SkipLevelIsAdvisory(t *testing.T) {
	v := Check(LevelTask, LevelArchitecture, "Implement retry", "Platform design")
	if v == nil {
		t.Fatal("Check() = nil, want moderate advisory")
	}
	if v.Critical() {
		t.Errorf("Severity = %q, want %q", v.Severity, SeverityModerate)
	}
	if !strings.Contains(v.Explanation, "skips") {
		t.Errorf("Explanation = %q, want skip-level statement", v.Explanation)
	}
}

func TestCheck_AdjacentUpwardIsClean(t *testing.T) {
	if v := Check(LevelTask, LevelComponent, "a", "b"); v != nil {
		t.Errorf("Check(task, component) = %+v, want nil", v)
	}
	if v := Check(LevelArchitecture, LevelVision, "a", "b"); v != nil {
		t.Errorf("Check(architecture, vision) = %+v, want nil", v)
	}
}

func TestDetectLevel(t *testing.T) {
	tests := []struct {
		title string
		want  Level
		ok    bool
	}{
		{"Product vision for 2027", LevelVision, true},
		{"Platform architecture overview", LevelArchitecture, true},
		{"Authentication module", LevelModule, true},
		{"Login component", LevelComponent, true},
		{"Password validation task", LevelTask, true},
		{"Implement rate limiting", LevelTask, true},
		{"Completely unrelated title", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got, ok := DetectLevel(tt.title)
			if ok != tt.ok {
				t.Fatalf("DetectLevel(%q) ok = %v, want %v", tt.title, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("DetectLevel(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	for l := LevelVision; l <= LevelTask; l++ {
		got, ok := ParseLevel(l.String())
		if !ok || got != l {
			t.Errorf("ParseLevel(%q) = (%v, %v), want (%v, true)", l.String(), got, ok, l)
		}
	}
	if _, ok := ParseLevel("epic"); ok {
		t.Error("ParseLevel(\"epic\") ok = true, want false")
	}
}

func TestLevelIsValid(t *testing.T) {
	if Level(-1).IsValid() {
		t.Error("Level(-1).IsValid() = true")
	}
	if Level(MaxDepth).IsValid() {
		t.Errorf("Level(%d).IsValid() = true", MaxDepth)
	}
	for l := LevelVision; l <= LevelTask; l++ {
		if !l.IsValid() {
			t.Errorf("Level(%d).IsValid() = false", int(l))
		}
	}
}
