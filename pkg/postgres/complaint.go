package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dhruvdankhara/smart-city-management/pkg/core/model"
	"github.com/dhruvdankhara/smart-city-management/pkg/db"
)

// GetComplaint retrieves one complaint with its images
func (d *DB) GetComplaint(ctx context.Context, id string) (*model.Complaint, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, title, description, category_id, priority, status,
		       reporter_id, department_id, assigned_worker_id, sla_deadline,
		       longitude, latitude, address, area_id, created_at, resolved_at
		FROM complaint
		WHERE id = $1
	`, id)

	complaint, err := scanComplaint(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query complaint: %w", err)
	}

	images, err := d.getImages(ctx, id)
	if err != nil {
		return nil, err
	}
	complaint.Images = images

	return complaint, nil
}

// InsertComplaint inserts a complaint and its images in one transaction
func (d *DB) InsertComplaint(ctx context.Context, complaint *model.Complaint) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO complaint (id, title, description, category_id, priority, status,
		                       reporter_id, department_id, assigned_worker_id, sla_deadline,
		                       longitude, latitude, address, area_id, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, complaint.ID, complaint.Title, complaint.Description, complaint.CategoryID,
		string(complaint.Priority), string(complaint.Status),
		complaint.ReporterID, complaint.DepartmentID,
		nullable(complaint.AssignedWorkerID), complaint.SLADeadline,
		complaint.Location.Longitude, complaint.Location.Latitude,
		complaint.Address, nullable(complaint.AreaID),
		complaint.CreatedAt, complaint.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to insert complaint: %w", err)
	}

	for _, img := range complaint.Images {
		_, err := tx.Exec(ctx, `
			INSERT INTO complaint_image (id, complaint_id, url, public_id)
			VALUES ($1, $2, $3, $4)
		`, uuid.New().String(), complaint.ID, img.URL, img.PublicID)
		if err != nil {
			return fmt.Errorf("failed to insert complaint image: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateComplaintStatus applies the patch with a conditional update keyed
// on the expected status and appends the audit row in the same
// transaction. A zero-row update means either the complaint is gone
// (ErrNotFound) or another actor moved the status first
// (ErrStatusConflict).
func (d *DB) UpdateComplaintStatus(ctx context.Context, id string, expected model.Status, patch db.ComplaintPatch, entry db.StatusLogEntry) (*model.Complaint, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	setParts := []string{"status = $1"}
	args := []any{string(patch.Status)}

	appendSet := func(column string, value any) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.AssignedWorkerID != nil {
		appendSet("assigned_worker_id", nullable(*patch.AssignedWorkerID))
	}
	if patch.SLADeadline != nil {
		appendSet("sla_deadline", *patch.SLADeadline)
	}
	if patch.Priority != nil {
		appendSet("priority", string(*patch.Priority))
	}
	if patch.ResolvedAt != nil {
		appendSet("resolved_at", *patch.ResolvedAt)
	}

	args = append(args, id)
	idArg := len(args)
	args = append(args, string(expected))
	statusArg := len(args)

	query := fmt.Sprintf(`UPDATE complaint SET %s WHERE id = $%d AND status = $%d`,
		strings.Join(setParts, ", "), idArg, statusArg)

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update complaint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM complaint WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check complaint existence: %w", err)
		}
		if !exists {
			return nil, db.ErrNotFound
		}
		return nil, db.ErrStatusConflict
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO complaint_status_log (id, complaint_id, old_status, new_status, changed_by, note)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New().String(), id, string(entry.OldStatus), string(entry.NewStatus), entry.ChangedBy, entry.Note)
	if err != nil {
		return nil, fmt.Errorf("failed to insert status log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return d.GetComplaint(ctx, id)
}

// CountActiveByWorker counts the worker's complaints with status assigned
// or in_progress
func (d *DB) CountActiveByWorker(ctx context.Context, workerID string) (int, error) {
	var count int
	err := d.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM complaint
		WHERE assigned_worker_id = $1 AND status IN ('assigned', 'in_progress')
	`, workerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active complaints: %w", err)
	}
	return count, nil
}

// ActiveLoadByDepartment returns per-worker active complaint counts for a
// department
func (d *DB) ActiveLoadByDepartment(ctx context.Context, departmentID string) (map[string]int, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT assigned_worker_id, COUNT(*)
		FROM complaint
		WHERE department_id = $1
		  AND status IN ('assigned', 'in_progress')
		  AND assigned_worker_id IS NOT NULL
		GROUP BY assigned_worker_id
	`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query department workload: %w", err)
	}
	defer rows.Close()

	loads := make(map[string]int)
	for rows.Next() {
		var workerID string
		var count int
		if err := rows.Scan(&workerID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan workload row: %w", err)
		}
		loads[workerID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workload rows: %w", err)
	}
	return loads, nil
}

// CountAssignedWithDeadlineBetween counts the worker's active complaints
// with an SLA deadline inside [start, end] inclusive
func (d *DB) CountAssignedWithDeadlineBetween(ctx context.Context, workerID string, start, end time.Time) (int, error) {
	var count int
	err := d.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM complaint
		WHERE assigned_worker_id = $1
		  AND status IN ('assigned', 'in_progress')
		  AND sla_deadline >= $2
		  AND sla_deadline <= $3
	`, workerID, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count deadline conflicts: %w", err)
	}
	return count, nil
}

// GetStatusLogs returns the audit trail of a complaint, newest first
func (d *DB) GetStatusLogs(ctx context.Context, complaintID string) ([]model.StatusLog, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, complaint_id, old_status, new_status, changed_by, note, created_at
		FROM complaint_status_log
		WHERE complaint_id = $1
		ORDER BY created_at DESC
	`, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status logs: %w", err)
	}
	defer rows.Close()

	var logs []model.StatusLog
	for rows.Next() {
		var log model.StatusLog
		var oldStatus, newStatus string
		if err := rows.Scan(&log.ID, &log.ComplaintID, &oldStatus, &newStatus, &log.ChangedBy, &log.Note, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		log.OldStatus = model.Status(oldStatus)
		log.NewStatus = model.Status(newStatus)
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status logs: %w", err)
	}
	return logs, nil
}

func (d *DB) getImages(ctx context.Context, complaintID string) ([]model.Image, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT url, public_id FROM complaint_image WHERE complaint_id = $1
	`, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaint images: %w", err)
	}
	defer rows.Close()

	var images []model.Image
	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.URL, &img.PublicID); err != nil {
			return nil, fmt.Errorf("failed to scan complaint image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating complaint images: %w", err)
	}
	return images, nil
}

func scanComplaint(row pgx.Row) (*model.Complaint, error) {
	var c model.Complaint
	var priority, status string
	var assignedWorkerID, areaID *string
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.CategoryID, &priority, &status,
		&c.ReporterID, &c.DepartmentID, &assignedWorkerID, &c.SLADeadline,
		&c.Location.Longitude, &c.Location.Latitude, &c.Address, &areaID,
		&c.CreatedAt, &c.ResolvedAt); err != nil {
		return nil, err
	}
	c.Priority = model.Priority(priority)
	c.Status = model.Status(status)
	if assignedWorkerID != nil {
		c.AssignedWorkerID = *assignedWorkerID
	}
	if areaID != nil {
		c.AreaID = *areaID
	}
	return &c, nil
}

// nullable maps the empty string to SQL NULL
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
