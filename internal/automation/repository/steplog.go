package repository

import (
	"context"
	"fmt"
	"time"

	"salesops_backend/internal/automation/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StepLogRecord is one persisted step execution outcome.
type StepLogRecord struct {
	ID         uuid.UUID
	TeamID     uuid.UUID
	RuleID     uuid.UUID
	Trigger    domain.TriggerType
	StepID     uuid.UUID
	ActionType domain.ActionType
	Skipped    bool
	SkipReason *string
	Channel    *string
	ProviderID *string
	CreatedAt  time.Time
}

// StepLogRepository persists per-step execution outcomes of rule runs.
type StepLogRepository struct {
	pool *pgxpool.Pool
}

// NewStepLogs creates a step log repository.
func NewStepLogs(pool *pgxpool.Pool) *StepLogRepository {
	return &StepLogRepository{pool: pool}
}

// InsertBatch writes one row per step outcome in a single round trip.
func (r *StepLogRepository) InsertBatch(ctx context.Context, teamID, ruleID uuid.UUID, trigger domain.TriggerType, logs []domain.StepExecutionLog) error {
	if len(logs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	now := time.Now().UTC()
	query := `
		INSERT INTO automation_step_logs (
			id, team_id, rule_id, trigger, step_id, action_type,
			skipped, skip_reason, channel, provider_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	for _, entry := range logs {
		batch.Queue(query,
			uuid.New(), teamID, ruleID, string(trigger), entry.StepID, string(entry.ActionType),
			entry.Skipped, nullIfEmpty(entry.SkipReason), nullIfEmpty(entry.Channel),
			nullIfEmpty(entry.ProviderID), now,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range logs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert step log: %w", err)
		}
	}

	return nil
}

// ListByRule returns recent step logs for one rule, newest first.
func (r *StepLogRepository) ListByRule(ctx context.Context, ruleID, teamID uuid.UUID, limit int) ([]StepLogRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, team_id, rule_id, trigger, step_id, action_type,
		skipped, skip_reason, channel, provider_id, created_at
		FROM automation_step_logs
		WHERE rule_id = $1 AND team_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, ruleID, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list step logs: %w", err)
	}
	defer rows.Close()

	records := make([]StepLogRecord, 0)
	for rows.Next() {
		var (
			rec        StepLogRecord
			trigger    string
			actionType string
		)
		err := rows.Scan(
			&rec.ID, &rec.TeamID, &rec.RuleID, &trigger, &rec.StepID, &actionType,
			&rec.Skipped, &rec.SkipReason, &rec.Channel, &rec.ProviderID, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step log: %w", err)
		}
		rec.Trigger = domain.TriggerType(trigger)
		rec.ActionType = domain.ActionType(actionType)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read step logs: %w", err)
	}

	return records, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
