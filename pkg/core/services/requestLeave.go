package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhruvdankhara/smart-city-management/pkg/core/assignment"
	"github.com/dhruvdankhara/smart-city-management/pkg/core/model"
)

// LeaveRequestStore defines the database operations needed to file a leave
// request
type LeaveRequestStore interface {
	InsertLeaveRequest(ctx context.Context, leave *model.LeaveRequest) error
	CountAssignedWithDeadlineBetween(ctx context.Context, workerID string, start, end time.Time) (int, error)
}

// RequestLeaveInput carries a worker's leave application.
type RequestLeaveInput struct {
	WorkerID  string    `validate:"required"`
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required"`
	Reason    string    `validate:"required,min=5,max=500"`
}

// LeaveRequestResult is the created request plus the deadline-conflict
// warning.
type LeaveRequestResult struct {
	Leave *model.LeaveRequest

	// ConflictingTasks counts the worker's active complaints whose SLA
	// deadline falls inside the requested range. Informational only: the
	// request is created regardless.
	ConflictingTasks int

	// Warning is non-empty when ConflictingTasks > 0.
	Warning string
}

// RequestLeave files a pending leave request for the worker, warning about
// SLA deadlines that fall inside the requested range.
func RequestLeave(ctx context.Context, store LeaveRequestStore, logger *zap.Logger, in RequestLeaveInput) (*LeaveRequestResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, assignment.NewRuleError(assignment.KindValidation, leaveValidationMessage(err))
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, assignment.NewRuleError(assignment.KindValidation, "End date must not be before start date")
	}

	detector := assignment.NewLeaveConflictDetector(store, nil)
	conflicts, err := detector.CountConflicts(ctx, in.WorkerID, in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	leave := &model.LeaveRequest{
		ID:        uuid.New().String(),
		WorkerID:  in.WorkerID,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Reason:    in.Reason,
		Status:    model.LeavePending,
		CreatedAt: time.Now().UTC(),
	}

	if err := store.InsertLeaveRequest(ctx, leave); err != nil {
		return nil, fmt.Errorf("failed to insert leave request: %w", err)
	}

	logger.Info("Leave request filed",
		zap.String("leave_id", leave.ID),
		zap.String("worker_id", leave.WorkerID),
		zap.Int("conflicting_tasks", conflicts))

	result := &LeaveRequestResult{Leave: leave, ConflictingTasks: conflicts}
	if conflicts > 0 {
		result.Warning = fmt.Sprintf("Leave applied. Note: You have %d task(s) with deadlines during this period.", conflicts)
	}
	return result, nil
}

func leaveValidationMessage(err error) string {
	if msg := firstFieldError(err); msg != "" {
		return msg
	}
	return "Invalid leave request"
}
