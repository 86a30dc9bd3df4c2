package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dhruvdankhara/smart-city-management/pkg/core/model"
	"github.com/dhruvdankhara/smart-city-management/pkg/db"
)

// GetWorker retrieves one user record
func (d *DB) GetWorker(ctx context.Context, id string) (*model.User, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, name, email, role, department_id, is_active
		FROM app_user
		WHERE id = $1
	`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// FindActiveWorkers lists the active workers of a department
func (d *DB) FindActiveWorkers(ctx context.Context, departmentID string) ([]model.User, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, email, role, department_id, is_active
		FROM app_user
		WHERE role = 'worker' AND department_id = $1 AND is_active = TRUE
		ORDER BY name
	`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workers: %w", err)
	}
	defer rows.Close()

	var workers []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker: %w", err)
		}
		workers = append(workers, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workers: %w", err)
	}
	return workers, nil
}

// InsertUser inserts a user record
func (d *DB) InsertUser(ctx context.Context, user *model.User) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO app_user (id, name, email, role, department_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Name, user.Email, string(user.Role), nullable(user.DepartmentID), user.IsActive)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var role string
	var departmentID *string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &departmentID, &u.IsActive); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	if departmentID != nil {
		u.DepartmentID = *departmentID
	}
	return &u, nil
}
