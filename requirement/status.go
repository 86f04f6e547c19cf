package requirement

// Status represents the lifecycle state of a requirement.
type Status string

const (
	// StatusProposed indicates the requirement has been captured but not
	// yet accepted.
	StatusProposed Status = "proposed"
	// StatusApproved indicates the requirement has been accepted for
	// implementation.
	StatusApproved Status = "approved"
	// StatusImplemented indicates the requirement has been realized.
	StatusImplemented Status = "implemented"
	// StatusRejected indicates the requirement was declined. Terminal.
	StatusRejected Status = "rejected"
	// StatusDeprecated indicates an implemented requirement has been
	// retired. Terminal.
	StatusDeprecated Status = "deprecated"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a known lifecycle state.
func (s Status) IsValid() bool {
	switch s {
	case StatusProposed, StatusApproved, StatusImplemented, StatusRejected, StatusDeprecated:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further transitions leave this status.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusDeprecated
}

// CanTransitionTo returns true if the status can transition to the target
// status. Keeping the same status across an update is always allowed.
func (s Status) CanTransitionTo(target Status) bool {
	if s == target {
		return true
	}
	switch s {
	case StatusProposed:
		return target == StatusApproved || target == StatusRejected
	case StatusApproved:
		return target == StatusImplemented || target == StatusRejected
	case StatusImplemented:
		return target == StatusDeprecated
	case StatusRejected, StatusDeprecated:
		return false
	default:
		return false
	}
}

// AllowedTransitions lists the statuses reachable from s, used to build
// self-correcting transition errors.
func (s Status) AllowedTransitions() []Status {
	switch s {
	case StatusProposed:
		return []Status{StatusApproved, StatusRejected}
	case StatusApproved:
		return []Status{StatusImplemented, StatusRejected}
	case StatusImplemented:
		return []Status{StatusDeprecated}
	default:
		return nil
	}
}
