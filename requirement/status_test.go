package requirement

import "testing"

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusProposed, true},
		{StatusApproved, true},
		{StatusImplemented, true},
		{StatusRejected, true},
		{StatusDeprecated, true},
		{Status("draft"), false},
		{Status(""), false},
	}

	for _, tt := range tests {
		name := string(tt.status)
		if name == "" {
			name = "empty_status"
		}
		t.Run(name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.want {
				t.Errorf("Status(%q).IsValid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		// From proposed
		{StatusProposed, StatusApproved, true},
		{StatusProposed, StatusRejected, true},
		{StatusProposed, StatusImplemented, false},
		{StatusProposed, StatusDeprecated, false},

		// From approved
		{StatusApproved, StatusImplemented, true},
		{StatusApproved, StatusRejected, true},
		{StatusApproved, StatusProposed, false},
		{StatusApproved, StatusDeprecated, false},

		// From implemented
		{StatusImplemented, StatusDeprecated, true},
		{StatusImplemented, StatusRejected, false},
		{StatusImplemented, StatusProposed, false},

		// Terminal states
		{StatusRejected, StatusProposed, false},
		{StatusRejected, StatusApproved, false},
		{StatusDeprecated, StatusImplemented, false},
		{StatusDeprecated, StatusProposed, false},

		// Self transitions allowed for field-only updates
		{StatusProposed, StatusProposed, true},
		{StatusImplemented, StatusImplemented, true},
		{StatusRejected, StatusRejected, true},
	}

	for _, tt := range tests {
		name := string(tt.from) + "_to_" + string(tt.to)
		t.Run(name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("Status(%q).CanTransitionTo(%q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range []Status{StatusRejected, StatusDeprecated} {
		if !s.Terminal() {
			t.Errorf("Status(%q).Terminal() = false, want true", s)
		}
	}
	for _, s := range []Status{StatusProposed, StatusApproved, StatusImplemented} {
		if s.Terminal() {
			t.Errorf("Status(%q).Terminal() = true, want false", s)
		}
	}
}

func TestStatus_AllowedTransitions(t *testing.T) {
	if got := StatusRejected.AllowedTransitions(); got != nil {
		t.Errorf("StatusRejected.AllowedTransitions() = %v, want nil", got)
	}
	got := StatusProposed.AllowedTransitions()
	if len(got) != 2 {
		t.Fatalf("StatusProposed.AllowedTransitions() = %v, want two targets", got)
	}
}
