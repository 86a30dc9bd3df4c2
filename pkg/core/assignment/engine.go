package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dhruvdankhara/smart-city-management/pkg/core/model"
	"github.com/dhruvdankhara/smart-city-management/pkg/db"
)

var validate = validator.New()

// Store is the complete database surface the engine needs.
type Store interface {
	GetComplaint(ctx context.Context, id string) (*model.Complaint, error)
	UpdateComplaintStatus(ctx context.Context, id string, expected model.Status, patch db.ComplaintPatch, entry db.StatusLogEntry) (*model.Complaint, error)
	CountActiveByWorker(ctx context.Context, workerID string) (int, error)
	ActiveLoadByDepartment(ctx context.Context, departmentID string) (map[string]int, error)
	GetWorker(ctx context.Context, id string) (*model.User, error)
	FindActiveWorkers(ctx context.Context, departmentID string) ([]model.User, error)
	ApprovedLeaveCoveringDate(ctx context.Context, workerID string, day time.Time) (bool, error)
	CountAssignedWithDeadlineBetween(ctx context.Context, workerID string, start, end time.Time) (int, error)
}

// AssignInput carries one assignment request.
type AssignInput struct {
	ComplaintID string `validate:"required"`
	Actor       model.Actor
	WorkerID    string    `validate:"required"`
	SLADeadline time.Time `validate:"required"`

	// Priority, when set, overrides the complaint's priority as part of the
	// assignment write.
	Priority model.Priority `validate:"omitempty,oneof=low medium high critical"`
}

// AssignmentResult is returned on a successful assignment.
type AssignmentResult struct {
	Complaint *model.Complaint

	// WorkerLoad is the candidate's active load after this assignment.
	WorkerLoad int

	// Suggestion names a strictly less-loaded alternate worker, when one
	// exists. Advisory only: it never blocks or alters the assignment.
	Suggestion string
}

// Engine orchestrates complaint assignment: state validation, actor scope,
// eligibility, the transactional write with its audit entry, and the
// load-balancing suggestion.
type Engine struct {
	store       Store
	workload    *WorkloadIndex
	eligibility *EligibilityChecker
	logger      *zap.Logger
}

func NewEngine(store Store, logger *zap.Logger) *Engine {
	workload := NewWorkloadIndex(store)
	leave := NewLeaveConflictDetector(store, store)
	return &Engine{
		store:       store,
		workload:    workload,
		eligibility: NewEligibilityChecker(store, workload, leave),
		logger:      logger,
	}
}

// Assign runs the full assignment flow. Every failure before the write is a
// pure validation failure with no mutation and is safe to retry; the write
// itself is a conditional update keyed on the reported status, so of two
// concurrent attempts on the same complaint exactly one succeeds and the
// other observes an InvalidState rule error.
func (e *Engine) Assign(ctx context.Context, in AssignInput) (*AssignmentResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, NewRuleError(KindValidation, validationMessage(err))
	}

	e.logger.Info("Assigning complaint",
		zap.String("complaint_id", in.ComplaintID),
		zap.String("worker_id", in.WorkerID),
		zap.String("actor_id", in.Actor.ID))

	complaint, err := e.store.GetComplaint(ctx, in.ComplaintID)
	if err != nil {
		if isNotFound(err) {
			return nil, NewRuleError(KindNotFound, "Complaint not found")
		}
		return nil, fmt.Errorf("failed to fetch complaint: %w", err)
	}

	// Only allow assigning if the complaint has not been assigned yet.
	// Re-assignment goes through a different path.
	if complaint.Status != model.StatusReported {
		return nil, NewRuleError(KindInvalidState, "This complaint is already assigned")
	}

	if !in.Actor.CanManageDepartment(complaint.DepartmentID) {
		return nil, NewRuleError(KindForbidden, "Forbidden")
	}

	worker, err := e.eligibility.CheckEligible(ctx, complaint, in.WorkerID, in.SLADeadline)
	if err != nil {
		return nil, err
	}

	// Department-wide loads feed both the reported post-assignment load and
	// the suggestion. Racy with concurrent assignments; the cap is a
	// best-effort guard, only the status write below is atomic.
	loads, err := e.workload.ActiveLoad(ctx, complaint.DepartmentID)
	if err != nil {
		return nil, err
	}
	currentLoad := loads[worker.ID]

	deadline := in.SLADeadline
	patch := db.ComplaintPatch{
		Status:           model.StatusAssigned,
		AssignedWorkerID: &worker.ID,
		SLADeadline:      &deadline,
	}
	if in.Priority != "" {
		priority := in.Priority
		patch.Priority = &priority
	}
	entry := db.StatusLogEntry{
		OldStatus: model.StatusReported,
		NewStatus: model.StatusAssigned,
		ChangedBy: in.Actor.ID,
		Note:      fmt.Sprintf("Assigned to %s", worker.Name),
	}

	updated, err := e.store.UpdateComplaintStatus(ctx, complaint.ID, model.StatusReported, patch, entry)
	if err != nil {
		if errors.Is(err, db.ErrStatusConflict) {
			return nil, NewRuleError(KindInvalidState, "This complaint is already assigned")
		}
		return nil, fmt.Errorf("failed to persist assignment: %w", err)
	}

	suggestion, err := e.suggestAlternative(ctx, complaint.DepartmentID, worker.ID, currentLoad+1, loads)
	if err != nil {
		// The assignment is already committed; a failed suggestion lookup
		// must not fail the call.
		e.logger.Warn("Failed to compute assignment suggestion", zap.Error(err))
		suggestion = ""
	}

	e.logger.Info("Complaint assigned",
		zap.String("complaint_id", updated.ID),
		zap.String("worker_id", worker.ID),
		zap.Int("worker_load", currentLoad+1))

	return &AssignmentResult{
		Complaint:  updated,
		WorkerLoad: currentLoad + 1,
		Suggestion: suggestion,
	}, nil
}

// suggestAlternative finds the active worker with the strictly lowest load
// in the department (ties broken by first encountered). A suggestion is
// emitted only when that worker's load is below the candidate's
// post-assignment load and the worker is not the candidate itself.
func (e *Engine) suggestAlternative(ctx context.Context, departmentID, candidateID string, candidateLoad int, loads map[string]int) (string, error) {
	workers, err := e.store.FindActiveWorkers(ctx, departmentID)
	if err != nil {
		return "", fmt.Errorf("failed to list department workers: %w", err)
	}

	var least *model.User
	leastLoad := 0
	for i := range workers {
		load := loads[workers[i].ID]
		if least == nil || load < leastLoad {
			least = &workers[i]
			leastLoad = load
		}
	}

	if least == nil || least.ID == candidateID || leastLoad >= candidateLoad {
		return "", nil
	}
	return fmt.Sprintf("%s has fewer tasks (%d)", least.Name, leastLoad), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound)
}

// validationMessage flattens a validator error into the message surfaced to
// the caller.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "ComplaintID":
			return "Complaint is required"
		case "WorkerID":
			return "Worker is required"
		case "SLADeadline":
			return "Deadline is required"
		case "Priority":
			return "Invalid priority"
		}
	}
	return "Invalid input"
}
