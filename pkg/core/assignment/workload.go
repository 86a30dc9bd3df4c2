package assignment

import (
	"context"
	"fmt"
)

// WorkloadCap is the hard limit on simultaneous active complaints per
// worker. It is a business rule, not configuration.
const WorkloadCap = 10

// WorkloadStore is the read-side the index aggregates over.
type WorkloadStore interface {
	CountActiveByWorker(ctx context.Context, workerID string) (int, error)
	ActiveLoadByDepartment(ctx context.Context, departmentID string) (map[string]int, error)
}

// WorkloadIndex computes active complaint counts per worker. Counts are
// always recomputed from current store state rather than cached, so they
// reflect concurrent writes made by other actors; the cost is an extra
// query per check.
type WorkloadIndex struct {
	store WorkloadStore
}

func NewWorkloadIndex(store WorkloadStore) *WorkloadIndex {
	return &WorkloadIndex{store: store}
}

// ActiveLoad returns the per-worker count of complaints with status
// assigned or in_progress across one department. Workers with no active
// complaints are absent from the map; callers treat missing as zero.
func (w *WorkloadIndex) ActiveLoad(ctx context.Context, departmentID string) (map[string]int, error) {
	loads, err := w.store.ActiveLoadByDepartment(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate department workload: %w", err)
	}
	return loads, nil
}

// ActiveLoadOf returns the active complaint count for a single worker.
func (w *WorkloadIndex) ActiveLoadOf(ctx context.Context, workerID string) (int, error) {
	count, err := w.store.CountActiveByWorker(ctx, workerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count active complaints: %w", err)
	}
	return count, nil
}
