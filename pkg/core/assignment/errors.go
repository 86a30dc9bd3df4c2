// Package assignment implements the worker-assignment engine: it decides
// whether a complaint may be assigned, to whom, under which constraints
// (workload cap, department matching, leave conflicts), and computes the
// load-balancing suggestion.
package assignment

import "errors"

// Kind classifies a business-rule failure. Every rejection an operation can
// produce is one of these; callers branch on the kind, humans read the
// message.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindInvalidState        Kind = "invalid_state"
	KindForbidden           Kind = "forbidden"
	KindWorkerNotEligible   Kind = "worker_not_eligible"
	KindWorkloadCapExceeded Kind = "workload_cap_exceeded"
	KindWorkerOnLeave       Kind = "worker_on_leave"
	KindValidation          Kind = "validation"
)

// RuleError is an expected, recoverable-by-caller outcome, as opposed to an
// infrastructure failure (which is wrapped and surfaced as a plain error).
type RuleError struct {
	Kind    Kind
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

// NewRuleError builds a rule error of the given kind with the
// caller-facing message.
func NewRuleError(kind Kind, message string) *RuleError {
	return &RuleError{Kind: kind, Message: message}
}

// KindOf extracts the rule kind from an error chain. The second return is
// false for infrastructure errors.
func KindOf(err error) (Kind, bool) {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a rule error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
