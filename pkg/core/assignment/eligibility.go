package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/dhruvdankhara/smart-city-management/pkg/core/model"
)

// WorkerLookup resolves candidate workers.
type WorkerLookup interface {
	GetWorker(ctx context.Context, id string) (*model.User, error)
}

// EligibilityChecker decides whether assigning a complaint to a candidate
// worker is legal. Checks run in order and the first failure wins:
//
//  1. candidate exists, has the worker role, is active, and belongs to the
//     complaint's department (WorkerNotEligible)
//  2. candidate's active load is under the workload cap (WorkloadCapExceeded)
//  3. candidate is not on approved leave as of today (WorkerOnLeave)
type EligibilityChecker struct {
	workers  WorkerLookup
	workload *WorkloadIndex
	leave    *LeaveConflictDetector
	now      func() time.Time
}

func NewEligibilityChecker(workers WorkerLookup, workload *WorkloadIndex, leave *LeaveConflictDetector) *EligibilityChecker {
	return &EligibilityChecker{
		workers:  workers,
		workload: workload,
		leave:    leave,
		now:      time.Now,
	}
}

// CheckEligible runs the eligibility chain for the candidate against the
// complaint. On success it returns the resolved worker; on rejection it
// returns a RuleError naming the failed check.
//
// The proposed SLA deadline is accepted for symmetry with the leave-request
// conflict check, but leave is only tested against today: a worker whose
// approved leave starts tomorrow is still eligible even if the leave
// overlaps the deadline window.
func (c *EligibilityChecker) CheckEligible(ctx context.Context, complaint *model.Complaint, candidateWorkerID string, slaDeadline time.Time) (*model.User, error) {
	worker, err := c.workers.GetWorker(ctx, candidateWorkerID)
	if err != nil {
		if isNotFound(err) {
			return nil, NewRuleError(KindWorkerNotEligible, "Worker not found or not in the same department")
		}
		return nil, fmt.Errorf("failed to look up worker: %w", err)
	}

	if worker.Role != model.RoleWorker || !worker.IsActive || worker.DepartmentID != complaint.DepartmentID {
		return nil, NewRuleError(KindWorkerNotEligible, "Worker not found or not in the same department")
	}

	load, err := c.workload.ActiveLoadOf(ctx, worker.ID)
	if err != nil {
		return nil, err
	}
	if load >= WorkloadCap {
		return nil, NewRuleError(KindWorkloadCapExceeded,
			fmt.Sprintf("Worker already has %d active tasks. Consider assigning to another worker.", load))
	}

	onLeave, err := c.leave.OnLeave(ctx, worker.ID, c.now())
	if err != nil {
		return nil, err
	}
	if onLeave {
		return nil, NewRuleError(KindWorkerOnLeave,
			fmt.Sprintf("%s is on approved leave today", worker.Name))
	}

	return worker, nil
}
