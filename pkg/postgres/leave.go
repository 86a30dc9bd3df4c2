package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dhruvdankhara/smart-city-management/pkg/core/model"
	"github.com/dhruvdankhara/smart-city-management/pkg/db"
)

// InsertLeaveRequest inserts a leave request
func (d *DB) InsertLeaveRequest(ctx context.Context, leave *model.LeaveRequest) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO leave_request (id, worker_id, start_date, end_date, reason, status, approved_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, leave.ID, leave.WorkerID, leave.StartDate, leave.EndDate, leave.Reason,
		string(leave.Status), nullable(leave.ApprovedBy), leave.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert leave request: %w", err)
	}
	return nil
}

// GetLeaveRequest retrieves one leave request
func (d *DB) GetLeaveRequest(ctx context.Context, id string) (*model.LeaveRequest, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, worker_id, start_date, end_date, reason, status, approved_by, created_at
		FROM leave_request
		WHERE id = $1
	`, id)

	leave, err := scanLeave(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query leave request: %w", err)
	}
	return leave, nil
}

// UpdateLeaveStatus moves a leave request between statuses with a
// conditional update, so a request is processed at most once.
func (d *DB) UpdateLeaveStatus(ctx context.Context, id string, expected, next model.LeaveStatus, approvedBy string) (*model.LeaveRequest, error) {
	tag, err := d.pool.Exec(ctx, `
		UPDATE leave_request
		SET status = $3, approved_by = $4
		WHERE id = $1 AND status = $2
	`, id, string(expected), string(next), nullable(approvedBy))
	if err != nil {
		return nil, fmt.Errorf("failed to update leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := d.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leave_request WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check leave request existence: %w", err)
		}
		if !exists {
			return nil, db.ErrNotFound
		}
		return nil, db.ErrStatusConflict
	}

	return d.GetLeaveRequest(ctx, id)
}

// ApprovedLeaveCoveringDate reports whether the worker has approved leave
// covering the given calendar day
func (d *DB) ApprovedLeaveCoveringDate(ctx context.Context, workerID string, day time.Time) (bool, error) {
	var onLeave bool
	err := d.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM leave_request
			WHERE worker_id = $1
			  AND status = 'approved'
			  AND start_date <= $2::date
			  AND end_date >= $2::date
		)
	`, workerID, day.UTC()).Scan(&onLeave)
	if err != nil {
		return false, fmt.Errorf("failed to check leave coverage: %w", err)
	}
	return onLeave, nil
}

// CountOverlapping counts the worker's approved leave requests overlapping
// [start, end] inclusive
func (d *DB) CountOverlapping(ctx context.Context, workerID string, start, end time.Time) (int, error) {
	var count int
	err := d.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM leave_request
		WHERE worker_id = $1
		  AND status = 'approved'
		  AND start_date <= $3::date
		  AND end_date >= $2::date
	`, workerID, start.UTC(), end.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping leave: %w", err)
	}
	return count, nil
}

func scanLeave(row pgx.Row) (*model.LeaveRequest, error) {
	var l model.LeaveRequest
	var status string
	var approvedBy *string
	if err := row.Scan(&l.ID, &l.WorkerID, &l.StartDate, &l.EndDate, &l.Reason, &status, &approvedBy, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.Status = model.LeaveStatus(status)
	if approvedBy != nil {
		l.ApprovedBy = *approvedBy
	}
	return &l, nil
}
