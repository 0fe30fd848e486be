package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"salesops_backend/internal/confirmation/domain"
	"salesops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskNotFoundMsg = "confirmation task not found"

// Repository provides database operations for confirmation configuration
// and tasks.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new confirmation repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ----------------------------------------------------------------------------
// Step configuration
// ----------------------------------------------------------------------------

// LoadConfig returns the team's confirmation steps in sequence order.
func (r *Repository) LoadConfig(ctx context.Context, teamID uuid.UUID) ([]domain.StepConfig, error) {
	query := `SELECT id, team_id, sequence, hours_before, label, assigned_role, enabled
		FROM confirmation_steps WHERE team_id = $1 ORDER BY sequence ASC`

	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmation config: %w", err)
	}
	defer rows.Close()

	config := make([]domain.StepConfig, 0)
	for rows.Next() {
		var (
			entry domain.StepConfig
			role  string
		)
		if err := rows.Scan(&entry.ID, &entry.TeamID, &entry.Sequence, &entry.HoursBefore, &entry.Label, &role, &entry.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan confirmation step: %w", err)
		}
		entry.AssignedRole = domain.Role(role)
		config = append(config, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read confirmation config: %w", err)
	}

	return config, nil
}

// ReplaceConfig swaps the team's whole step list in one transaction. The
// caller is responsible for passing a renumbered, contiguous sequence.
func (r *Repository) ReplaceConfig(ctx context.Context, teamID uuid.UUID, config []domain.StepConfig) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin config replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM confirmation_steps WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to clear confirmation config: %w", err)
	}

	query := `INSERT INTO confirmation_steps (id, team_id, sequence, hours_before, label, assigned_role, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, entry := range config {
		_, err := tx.Exec(ctx, query,
			entry.ID, teamID, entry.Sequence, entry.HoursBefore, entry.Label, string(entry.AssignedRole), entry.Enabled,
		)
		if err != nil {
			return fmt.Errorf("failed to insert confirmation step: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit config replace: %w", err)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Tasks
// ----------------------------------------------------------------------------

// ReplaceTasksForAppointment deletes any existing task set for the
// appointment and writes the new one atomically. Regeneration on reschedule
// is therefore idempotent: two generations never double a task set.
func (r *Repository) ReplaceTasksForAppointment(ctx context.Context, appointmentID uuid.UUID, tasks []domain.Task) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin task replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM confirmation_tasks WHERE appointment_id = $1`, appointmentID); err != nil {
		return fmt.Errorf("failed to clear confirmation tasks: %w", err)
	}

	query := `
		INSERT INTO confirmation_tasks (
			id, appointment_id, team_id, sequence, label, assigned_role,
			due_at, completed_confirmations, required_confirmations, attempts, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	for _, task := range tasks {
		attempts, err := json.Marshal(task.Attempts)
		if err != nil {
			return fmt.Errorf("failed to encode attempts: %w", err)
		}
		_, err = tx.Exec(ctx, query,
			task.ID, task.AppointmentID, task.TeamID, task.Sequence, task.Label, string(task.AssignedRole),
			task.DueAt, task.CompletedConfirmations, task.RequiredConfirmations, attempts, task.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert confirmation task: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit task replace: %w", err)
	}
	return nil
}

// GetTask returns one task scoped to a team.
func (r *Repository) GetTask(ctx context.Context, taskID, teamID uuid.UUID) (*domain.Task, error) {
	query := taskSelect + ` WHERE id = $1 AND team_id = $2`

	task, err := scanTask(r.pool.QueryRow(ctx, query, taskID, teamID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(taskNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get confirmation task: %w", err)
	}
	return task, nil
}

// ListTasksForAppointment returns the appointment's tasks in sequence order.
func (r *Repository) ListTasksForAppointment(ctx context.Context, appointmentID, teamID uuid.UUID) ([]domain.Task, error) {
	query := taskSelect + ` WHERE appointment_id = $1 AND team_id = $2 ORDER BY sequence ASC`

	rows, err := r.pool.Query(ctx, query, appointmentID, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmation tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListOpenTasksDueBefore returns unfinished tasks across all teams whose due
// time is at or before the cutoff. Used by the scheduler's overdue sweep.
func (r *Repository) ListOpenTasksDueBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Task, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	query := taskSelect + `
		WHERE completed_confirmations < required_confirmations AND due_at <= $1
		ORDER BY due_at ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list open confirmation tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// AppendAttempt records one attempt inside a transaction with the task row
// locked, so concurrent attempts cannot push a task past its required count.
func (r *Repository) AppendAttempt(ctx context.Context, taskID, teamID uuid.UUID, attempt domain.Attempt) (*domain.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin attempt append: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := taskSelect + ` WHERE id = $1 AND team_id = $2 FOR UPDATE`
	task, err := scanTask(tx.QueryRow(ctx, query, taskID, teamID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(taskNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to lock confirmation task: %w", err)
	}

	updated, err := domain.RecordAttempt(*task, attempt)
	if err != nil {
		return nil, err
	}

	attempts, err := json.Marshal(updated.Attempts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode attempts: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE confirmation_tasks SET completed_confirmations = $3, attempts = $4 WHERE id = $1 AND team_id = $2`,
		taskID, teamID, updated.CompletedConfirmations, attempts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit attempt: %w", err)
	}
	return &updated, nil
}

const taskSelect = `SELECT id, appointment_id, team_id, sequence, label, assigned_role,
	due_at, completed_confirmations, required_confirmations, attempts, created_at
	FROM confirmation_tasks`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task     domain.Task
		role     string
		attempts []byte
	)

	err := row.Scan(
		&task.ID, &task.AppointmentID, &task.TeamID, &task.Sequence, &task.Label, &role,
		&task.DueAt, &task.CompletedConfirmations, &task.RequiredConfirmations, &attempts, &task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.AssignedRole = domain.Role(role)
	if err := json.Unmarshal(attempts, &task.Attempts); err != nil {
		return nil, fmt.Errorf("failed to decode attempts: %w", err)
	}

	return &task, nil
}

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan confirmation task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read confirmation tasks: %w", err)
	}
	return tasks, nil
}
