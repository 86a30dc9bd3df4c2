package assignment

import (
	"context"
	"fmt"
	"time"
)

// DeadlineStore counts the complaints a leave range would collide with.
type DeadlineStore interface {
	CountAssignedWithDeadlineBetween(ctx context.Context, workerID string, start, end time.Time) (int, error)
}

// LeaveCalendar answers current-day leave lookups.
type LeaveCalendar interface {
	ApprovedLeaveCoveringDate(ctx context.Context, workerID string, day time.Time) (bool, error)
}

// LeaveConflictDetector checks a worker's leave against their assigned
// work. It serves two callers with different semantics: leave-request
// creation counts SLA deadlines falling inside the proposed range (a
// warning, never a block), and assignment-time eligibility asks whether the
// worker is on approved leave as of today.
type LeaveConflictDetector struct {
	deadlines DeadlineStore
	leaves    LeaveCalendar
}

// NewLeaveConflictDetector builds a detector. leaves may be nil for
// callers that only count deadline conflicts.
func NewLeaveConflictDetector(deadlines DeadlineStore, leaves LeaveCalendar) *LeaveConflictDetector {
	return &LeaveConflictDetector{deadlines: deadlines, leaves: leaves}
}

// CountConflicts counts active complaints assigned to the worker whose SLA
// deadline falls within [start, end] inclusive.
func (d *LeaveConflictDetector) CountConflicts(ctx context.Context, workerID string, start, end time.Time) (int, error) {
	count, err := d.deadlines.CountAssignedWithDeadlineBetween(ctx, workerID, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to count deadline conflicts: %w", err)
	}
	return count, nil
}

// OnLeave reports whether the worker has an approved leave request covering
// the given day.
func (d *LeaveConflictDetector) OnLeave(ctx context.Context, workerID string, day time.Time) (bool, error) {
	onLeave, err := d.leaves.ApprovedLeaveCoveringDate(ctx, workerID, day)
	if err != nil {
		return false, fmt.Errorf("failed to check leave status: %w", err)
	}
	return onLeave, nil
}
