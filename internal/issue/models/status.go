package models

import dErrors "campusvoice/pkg/domain-errors"

// Status is the triage state of an issue.
//
// The workflow is a fixed directed graph walked only by admins:
//
//	pending → under_review → {approved, rejected}
//	approved → in_progress → resolved
//
// resolved and rejected are terminal. Soft deletion is a separate flag on the
// issue, not a state in this graph.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusInProgress  Status = "in_progress"
	StatusResolved    Status = "resolved"
	StatusRejected    Status = "rejected"
)

var transitions = map[Status][]Status{
	StatusPending:     {StatusUnderReview},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusApproved:    {StatusInProgress},
	StatusInProgress:  {StatusResolved},
	StatusResolved:    {},
	StatusRejected:    {},
}

// CanTransitionTo reports whether target is reachable from s in one step.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0 && s.IsValid()
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// ParseStatus validates a status received at a trust boundary.
func ParseStatus(s string) (Status, error) {
	if !Status(s).IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown status")
	}
	return Status(s), nil
}
