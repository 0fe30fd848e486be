package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentNotFoundMsg = "appointment not found"

// Appointment represents the appointment database model
type Appointment struct {
	ID        uuid.UUID  `db:"id"`
	TeamID    uuid.UUID  `db:"team_id"`
	LeadID    *uuid.UUID `db:"lead_id"`
	Title     string     `db:"title"`
	Location  *string    `db:"location"`
	StartAt   time.Time  `db:"start_at"`
	EndAt     time.Time  `db:"end_at"`
	Status    string     `db:"status"`
	SetterID  *uuid.UUID `db:"setter_id"`
	CloserID  *uuid.UUID `db:"closer_id"`
	Outcome   *string    `db:"outcome"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// Repository provides database operations for appointments
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new appointments repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new appointment
func (r *Repository) Create(ctx context.Context, appt *Appointment) error {
	query := `
		INSERT INTO appointments (
			id, team_id, lead_id, title, location, start_at, end_at,
			status, setter_id, closer_id, outcome, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		appt.ID, appt.TeamID, appt.LeadID, appt.Title, appt.Location, appt.StartAt, appt.EndAt,
		appt.Status, appt.SetterID, appt.CloserID, appt.Outcome, appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	return nil
}

// GetByID retrieves an appointment by its ID
func (r *Repository) GetByID(ctx context.Context, id, teamID uuid.UUID) (*Appointment, error) {
	var appt Appointment
	query := `SELECT id, team_id, lead_id, title, location, start_at, end_at,
		status, setter_id, closer_id, outcome, created_at, updated_at
		FROM appointments WHERE id = $1 AND team_id = $2`

	err := r.pool.QueryRow(ctx, query, id, teamID).Scan(
		&appt.ID, &appt.TeamID, &appt.LeadID, &appt.Title, &appt.Location, &appt.StartAt, &appt.EndAt,
		&appt.Status, &appt.SetterID, &appt.CloserID, &appt.Outcome, &appt.CreatedAt, &appt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(appointmentNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	return &appt, nil
}

// List returns the team's appointments within an optional time window.
func (r *Repository) List(ctx context.Context, teamID uuid.UUID, from, to *time.Time) ([]Appointment, error) {
	query := `SELECT id, team_id, lead_id, title, location, start_at, end_at,
		status, setter_id, closer_id, outcome, created_at, updated_at
		FROM appointments WHERE team_id = $1`
	args := []any{teamID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND start_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND start_at < $%d", len(args))
	}
	query += " ORDER BY start_at ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	appointments := make([]Appointment, 0)
	for rows.Next() {
		var appt Appointment
		err := rows.Scan(
			&appt.ID, &appt.TeamID, &appt.LeadID, &appt.Title, &appt.Location, &appt.StartAt, &appt.EndAt,
			&appt.Status, &appt.SetterID, &appt.CloserID, &appt.Outcome, &appt.CreatedAt, &appt.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read appointments: %w", err)
	}

	return appointments, nil
}

// UpdateTimes moves an appointment's start and end.
func (r *Repository) UpdateTimes(ctx context.Context, id, teamID uuid.UUID, startAt, endAt, updatedAt time.Time) error {
	query := `UPDATE appointments SET start_at = $3, end_at = $4, updated_at = $5
		WHERE id = $1 AND team_id = $2`

	result, err := r.pool.Exec(ctx, query, id, teamID, startAt, endAt, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to reschedule appointment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(appointmentNotFoundMsg)
	}

	return nil
}

// UpdateStatus sets the appointment status and optional outcome.
func (r *Repository) UpdateStatus(ctx context.Context, id, teamID uuid.UUID, status string, outcome *string, updatedAt time.Time) error {
	query := `UPDATE appointments SET status = $3, outcome = $4, updated_at = $5
		WHERE id = $1 AND team_id = $2`

	result, err := r.pool.Exec(ctx, query, id, teamID, status, outcome, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(appointmentNotFoundMsg)
	}

	return nil
}
