package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dhruvdankhara/smart-city-management/pkg/core/assignment"
	"github.com/dhruvdankhara/smart-city-management/pkg/core/model"
	"github.com/dhruvdankhara/smart-city-management/pkg/db"
)

// LeaveReviewStore defines the database operations needed to review a
// leave request
type LeaveReviewStore interface {
	GetLeaveRequest(ctx context.Context, id string) (*model.LeaveRequest, error)
	UpdateLeaveStatus(ctx context.Context, id string, expected, next model.LeaveStatus, approvedBy string) (*model.LeaveRequest, error)
}

// ReviewLeaveInput carries an admin's approve/reject decision.
type ReviewLeaveInput struct {
	LeaveID  string `validate:"required"`
	Actor    model.Actor
	Decision model.LeaveStatus `validate:"required,oneof=approved rejected"`
}

// ReviewLeave approves or rejects a pending leave request exactly once.
// The status move is conditional on the request still being pending, so two
// concurrent reviews cannot both win.
func ReviewLeave(ctx context.Context, store LeaveReviewStore, logger *zap.Logger, in ReviewLeaveInput) (*model.LeaveRequest, error) {
	if err := validate.Struct(in); err != nil {
		if msg := firstFieldError(err); msg != "" {
			return nil, assignment.NewRuleError(assignment.KindValidation, msg)
		}
		return nil, assignment.NewRuleError(assignment.KindValidation, "Invalid status. Use 'approved' or 'rejected'")
	}

	if in.Actor.Role != model.RoleAdmin && in.Actor.Role != model.RoleSuperAdmin {
		return nil, assignment.NewRuleError(assignment.KindForbidden, "Forbidden")
	}

	leave, err := store.GetLeaveRequest(ctx, in.LeaveID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, assignment.NewRuleError(assignment.KindNotFound, "Leave request not found")
		}
		return nil, fmt.Errorf("failed to fetch leave request: %w", err)
	}

	if leave.Status != model.LeavePending {
		return nil, assignment.NewRuleError(assignment.KindInvalidState, "Leave request already processed")
	}

	updated, err := store.UpdateLeaveStatus(ctx, leave.ID, model.LeavePending, in.Decision, in.Actor.ID)
	if err != nil {
		if errors.Is(err, db.ErrStatusConflict) {
			return nil, assignment.NewRuleError(assignment.KindInvalidState, "Leave request already processed")
		}
		return nil, fmt.Errorf("failed to persist leave decision: %w", err)
	}

	logger.Info("Leave request reviewed",
		zap.String("leave_id", updated.ID),
		zap.String("decision", string(in.Decision)),
		zap.String("reviewed_by", in.Actor.ID))

	return updated, nil
}
