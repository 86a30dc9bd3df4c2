package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/dhruvdankhara/smart-city-management/pkg/core/assignment"
	"github.com/dhruvdankhara/smart-city-management/pkg/core/model"
)

// WorkloadViewStore defines the database operations needed for the
// department workload listing
type WorkloadViewStore interface {
	FindActiveWorkers(ctx context.Context, departmentID string) ([]model.User, error)
	ActiveLoadByDepartment(ctx context.Context, departmentID string) (map[string]int, error)
	CountActiveByWorker(ctx context.Context, workerID string) (int, error)
}

// WorkerLoad pairs a worker with their current active complaint count.
type WorkerLoad struct {
	Worker model.User
	Load   int
}

// DepartmentWorkloads lists the active workers of a department with their
// current loads, least loaded first. This is the same read the assignment
// suggestion heuristic performs, exposed for operators; the counts are a
// snapshot and may lag concurrent assignments.
func DepartmentWorkloads(ctx context.Context, store WorkloadViewStore, logger *zap.Logger, departmentID string) ([]WorkerLoad, error) {
	if departmentID == "" {
		return nil, assignment.NewRuleError(assignment.KindValidation, "Department is required")
	}

	workers, err := store.FindActiveWorkers(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list department workers: %w", err)
	}

	index := assignment.NewWorkloadIndex(store)
	loads, err := index.ActiveLoad(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	result := make([]WorkerLoad, 0, len(workers))
	for _, worker := range workers {
		result = append(result, WorkerLoad{Worker: worker, Load: loads[worker.ID]})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Load < result[j].Load
	})

	logger.Debug("Computed department workloads",
		zap.String("department_id", departmentID),
		zap.Int("workers", len(result)))

	return result, nil
}
