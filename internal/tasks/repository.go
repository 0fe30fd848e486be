// Package tasks provides the task/tag store collaborator: CRUD over team
// tasks, record tags, team notifications, and the dialer queue. Automation
// action steps write through this store.
package tasks

import (
	"context"

	"salesops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists team tasks and related records.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new tasks repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateTask inserts a follow-up task for the team.
func (r *Repository) CreateTask(ctx context.Context, teamID uuid.UUID, title, description, relatedRecord string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO team_tasks (id, team_id, title, description, related_record, status)
		VALUES ($1, $2, $3, $4, $5, 'open')
	`, uuid.New(), teamID, title, description, nullIfEmpty(relatedRecord))
	return err
}

// AddTag attaches a tag to a record. Duplicate tags are a no-op.
func (r *Repository) AddTag(ctx context.Context, teamID uuid.UUID, recordID, tag string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO record_tags (id, team_id, record_id, tag)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id, record_id, tag) DO NOTHING
	`, uuid.New(), teamID, recordID, tag)
	return err
}

// NotifyTeam inserts a broadcast notification for all team members.
func (r *Repository) NotifyTeam(ctx context.Context, teamID uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO team_notifications (id, team_id, message)
		VALUES ($1, $2, $3)
	`, uuid.New(), teamID, message)
	return err
}

// EnqueueDial appends a phone number to the team's dialer queue.
func (r *Repository) EnqueueDial(ctx context.Context, teamID uuid.UUID, phoneNumber, recordID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO dialer_queue (id, team_id, phone_number, record_id, status)
		VALUES ($1, $2, $3, $4, 'queued')
	`, uuid.New(), teamID, phoneNumber, nullIfEmpty(recordID))
	return err
}

// Task is one open follow-up item for a team.
type Task struct {
	ID            uuid.UUID
	TeamID        uuid.UUID
	Title         string
	Description   string
	RelatedRecord *string
	Status        string
}

// GetTask loads a single task scoped to the team.
func (r *Repository) GetTask(ctx context.Context, teamID, taskID uuid.UUID) (Task, error) {
	var t Task
	err := r.pool.QueryRow(ctx, `
		SELECT id, team_id, title, description, related_record, status
		FROM team_tasks
		WHERE id = $1 AND team_id = $2
	`, taskID, teamID).Scan(&t.ID, &t.TeamID, &t.Title, &t.Description, &t.RelatedRecord, &t.Status)
	if err == pgx.ErrNoRows {
		return Task{}, apperr.NotFound("task not found")
	}
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

func nullIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
