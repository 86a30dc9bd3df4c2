package model

// Status is the complaint lifecycle state.
//
// Transitions: reported → assigned → in_progress → resolved, with
// reported → rejected and reported|assigned → cancelled. The terminal
// states (resolved, rejected, cancelled) have no outgoing transitions.
type Status string

const (
	StatusReported   Status = "reported"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
	StatusCancelled  Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusReported, StatusAssigned, StatusInProgress,
		StatusResolved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusResolved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether the complaint counts towards its assigned
// worker's workload.
func (s Status) IsActive() bool {
	return s == StatusAssigned || s == StatusInProgress
}

var transitions = map[Status][]Status{
	StatusReported:   {StatusAssigned, StatusRejected, StatusCancelled},
	StatusAssigned:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusResolved},
}

// CanTransition reports whether moving from one status to another is legal
// under the complaint state machine.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
