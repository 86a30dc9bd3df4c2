package db

import (
	"context"
	"errors"
	"time"

	"github.com/dhruvdankhara/smart-city-management/pkg/core/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrStatusConflict is returned by conditional updates when the record was
// not in the expected status at write time, i.e. a concurrent actor got
// there first. Stores must enforce this with a conditional update, not a
// read-then-write.
var ErrStatusConflict = errors.New("status changed concurrently")

// ComplaintPatch describes the fields to change alongside a status
// transition. Nil pointer fields are left untouched.
type ComplaintPatch struct {
	Status           model.Status
	AssignedWorkerID *string
	SLADeadline      *time.Time
	Priority         *model.Priority
	ResolvedAt       *time.Time
}

// StatusLogEntry is the audit row written atomically with a status
// transition.
type StatusLogEntry struct {
	OldStatus model.Status
	NewStatus model.Status
	ChangedBy string
	Note      string
}

// ComplaintStore defines the complaint database operations
type ComplaintStore interface {
	GetComplaint(ctx context.Context, id string) (*model.Complaint, error)
	InsertComplaint(ctx context.Context, complaint *model.Complaint) error

	// UpdateComplaintStatus applies the patch if and only if the complaint
	// currently has the expected status, and appends the audit row in the
	// same transaction. Returns ErrStatusConflict when the conditional
	// update matches no row because the status moved underneath us.
	UpdateComplaintStatus(ctx context.Context, id string, expected model.Status, patch ComplaintPatch, entry StatusLogEntry) (*model.Complaint, error)

	// CountActiveByWorker counts complaints assigned to the worker with
	// status assigned or in_progress.
	CountActiveByWorker(ctx context.Context, workerID string) (int, error)

	// ActiveLoadByDepartment returns the per-worker active complaint counts
	// for one department. Workers with no active complaints are absent.
	ActiveLoadByDepartment(ctx context.Context, departmentID string) (map[string]int, error)

	// CountAssignedWithDeadlineBetween counts active complaints of the
	// worker whose SLA deadline falls inside [start, end] inclusive.
	CountAssignedWithDeadlineBetween(ctx context.Context, workerID string, start, end time.Time) (int, error)
}

// WorkerDirectory defines worker lookup operations
type WorkerDirectory interface {
	GetWorker(ctx context.Context, id string) (*model.User, error)
	FindActiveWorkers(ctx context.Context, departmentID string) ([]model.User, error)
}

// LeaveStore defines the leave request database operations
type LeaveStore interface {
	InsertLeaveRequest(ctx context.Context, leave *model.LeaveRequest) error
	GetLeaveRequest(ctx context.Context, id string) (*model.LeaveRequest, error)

	// UpdateLeaveStatus moves the request from the expected status to the
	// next one, stamping the reviewer. Returns ErrStatusConflict when the
	// request is no longer in the expected status.
	UpdateLeaveStatus(ctx context.Context, id string, expected, next model.LeaveStatus, approvedBy string) (*model.LeaveRequest, error)

	// ApprovedLeaveCoveringDate reports whether the worker has an approved
	// leave request whose inclusive date range contains day.
	ApprovedLeaveCoveringDate(ctx context.Context, workerID string, day time.Time) (bool, error)

	// CountOverlapping counts approved leave requests of the worker whose
	// range overlaps [start, end] inclusive.
	CountOverlapping(ctx context.Context, workerID string, start, end time.Time) (int, error)
}
