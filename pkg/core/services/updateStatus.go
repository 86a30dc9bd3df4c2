package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dhruvdankhara/smart-city-management/pkg/core/assignment"
	"github.com/dhruvdankhara/smart-city-management/pkg/core/model"
	"github.com/dhruvdankhara/smart-city-management/pkg/db"
)

// ComplaintUpdater defines the database operations needed for status
// transitions
type ComplaintUpdater interface {
	GetComplaint(ctx context.Context, id string) (*model.Complaint, error)
	UpdateComplaintStatus(ctx context.Context, id string, expected model.Status, patch db.ComplaintPatch, entry db.StatusLogEntry) (*model.Complaint, error)
}

// UpdateStatusInput carries one status transition request.
type UpdateStatusInput struct {
	ComplaintID string `validate:"required"`
	Actor       model.Actor
	NewStatus   model.Status `validate:"required,oneof=in_progress resolved rejected cancelled"`
	Note        string       `validate:"max=500"`
}

// UpdateComplaintStatus moves a complaint along its state machine:
// workers progress their own assignments (in_progress, resolved), admins
// reject reported complaints in their department, citizens cancel their own
// complaints while still cancellable. Assignment is not reachable through
// this path; it has its own operation with stricter checks.
//
// The write is a conditional update on the observed status plus the audit
// row in one transaction, so concurrent transitions on the same complaint
// cannot interleave.
func UpdateComplaintStatus(ctx context.Context, store ComplaintUpdater, logger *zap.Logger, in UpdateStatusInput) (*model.Complaint, error) {
	if err := validate.Struct(in); err != nil {
		return nil, assignment.NewRuleError(assignment.KindValidation, statusValidationMessage(err))
	}

	complaint, err := store.GetComplaint(ctx, in.ComplaintID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, assignment.NewRuleError(assignment.KindNotFound, "Complaint not found")
		}
		return nil, fmt.Errorf("failed to fetch complaint: %w", err)
	}

	if err := authorizeTransition(in.Actor, complaint, in.NewStatus); err != nil {
		return nil, err
	}

	if !model.CanTransition(complaint.Status, in.NewStatus) {
		return nil, assignment.NewRuleError(assignment.KindInvalidState,
			fmt.Sprintf("Cannot move complaint from %s to %s", complaint.Status, in.NewStatus))
	}

	patch := db.ComplaintPatch{Status: in.NewStatus}
	if in.NewStatus == model.StatusResolved {
		now := time.Now().UTC()
		patch.ResolvedAt = &now
	}
	// Terminal states other than resolved release the worker, keeping the
	// assigned-worker invariant intact.
	if in.NewStatus == model.StatusRejected || in.NewStatus == model.StatusCancelled {
		empty := ""
		patch.AssignedWorkerID = &empty
	}

	entry := db.StatusLogEntry{
		OldStatus: complaint.Status,
		NewStatus: in.NewStatus,
		ChangedBy: in.Actor.ID,
		Note:      in.Note,
	}

	updated, err := store.UpdateComplaintStatus(ctx, complaint.ID, complaint.Status, patch, entry)
	if err != nil {
		if errors.Is(err, db.ErrStatusConflict) {
			return nil, assignment.NewRuleError(assignment.KindInvalidState, "Complaint was updated by someone else")
		}
		return nil, fmt.Errorf("failed to persist status change: %w", err)
	}

	logger.Info("Complaint status updated",
		zap.String("complaint_id", updated.ID),
		zap.String("old_status", string(entry.OldStatus)),
		zap.String("new_status", string(entry.NewStatus)),
		zap.String("actor_id", in.Actor.ID))

	return updated, nil
}

// authorizeTransition enforces who may request which transition.
func authorizeTransition(actor model.Actor, complaint *model.Complaint, next model.Status) error {
	switch actor.Role {
	case model.RoleCitizen:
		if complaint.ReporterID != actor.ID {
			return assignment.NewRuleError(assignment.KindForbidden, "Forbidden")
		}
		if next != model.StatusCancelled {
			return assignment.NewRuleError(assignment.KindForbidden, "You can only cancel your complaint")
		}
	case model.RoleWorker:
		if complaint.AssignedWorkerID != actor.ID {
			return assignment.NewRuleError(assignment.KindForbidden, "Forbidden")
		}
		if next != model.StatusInProgress && next != model.StatusResolved {
			return assignment.NewRuleError(assignment.KindForbidden, "Invalid status update")
		}
	case model.RoleAdmin, model.RoleSuperAdmin:
		if !actor.CanManageDepartment(complaint.DepartmentID) {
			return assignment.NewRuleError(assignment.KindForbidden, "Forbidden")
		}
		// Admins reject; they do not progress a worker's assignment or
		// cancel on a citizen's behalf.
		if next != model.StatusRejected {
			return assignment.NewRuleError(assignment.KindForbidden, "Invalid status update")
		}
	default:
		return assignment.NewRuleError(assignment.KindForbidden, "Forbidden")
	}
	return nil
}

func statusValidationMessage(err error) string {
	if msg := firstFieldError(err); msg != "" {
		return msg
	}
	return "Invalid status update"
}
