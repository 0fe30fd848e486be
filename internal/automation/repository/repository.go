package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"salesops_backend/internal/automation/domain"
	"salesops_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ruleNotFoundMsg = "automation rule not found"

// Repository provides database operations for automation rules.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new automation repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new rule. Conditions and steps are stored as JSONB.
func (r *Repository) Create(ctx context.Context, rule *domain.Rule) error {
	conditions, steps, err := marshalRuleBody(rule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO automation_rules (
			id, team_id, name, trigger, is_active, conditions, steps, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.pool.Exec(ctx, query,
		rule.ID, rule.TeamID, rule.Name, string(rule.Trigger), rule.IsActive,
		conditions, steps, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create automation rule: %w", err)
	}

	return nil
}

// GetByID retrieves a rule scoped to a team.
func (r *Repository) GetByID(ctx context.Context, id, teamID uuid.UUID) (*domain.Rule, error) {
	query := `SELECT id, team_id, name, trigger, is_active, conditions, steps, created_at, updated_at
		FROM automation_rules WHERE id = $1 AND team_id = $2`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, id, teamID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(ruleNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get automation rule: %w", err)
	}

	return rule, nil
}

// List returns all rules for a team, newest first.
func (r *Repository) List(ctx context.Context, teamID uuid.UUID) ([]domain.Rule, error) {
	query := `SELECT id, team_id, name, trigger, is_active, conditions, steps, created_at, updated_at
		FROM automation_rules WHERE team_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list automation rules: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

// ActiveRulesForTrigger returns the team's enabled rules registered for the
// trigger. Ordered by creation time so firing order is stable across runs.
func (r *Repository) ActiveRulesForTrigger(ctx context.Context, teamID uuid.UUID, trigger domain.TriggerType) ([]domain.Rule, error) {
	query := `SELECT id, team_id, name, trigger, is_active, conditions, steps, created_at, updated_at
		FROM automation_rules
		WHERE team_id = $1 AND trigger = $2 AND is_active = TRUE
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, teamID, string(trigger))
	if err != nil {
		return nil, fmt.Errorf("failed to load rules for trigger: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

// Update replaces the mutable fields of an existing rule.
func (r *Repository) Update(ctx context.Context, rule *domain.Rule) error {
	conditions, steps, err := marshalRuleBody(rule)
	if err != nil {
		return err
	}

	query := `
		UPDATE automation_rules SET
			name = $3,
			trigger = $4,
			is_active = $5,
			conditions = $6,
			steps = $7,
			updated_at = $8
		WHERE id = $1 AND team_id = $2`

	result, err := r.pool.Exec(ctx, query,
		rule.ID, rule.TeamID, rule.Name, string(rule.Trigger), rule.IsActive,
		conditions, steps, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update automation rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(ruleNotFoundMsg)
	}

	return nil
}

// Delete removes a rule scoped to a team.
func (r *Repository) Delete(ctx context.Context, id, teamID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM automation_rules WHERE id = $1 AND team_id = $2`, id, teamID)
	if err != nil {
		return fmt.Errorf("failed to delete automation rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(ruleNotFoundMsg)
	}

	return nil
}

// SetActive flips the enabled flag without touching the rule body.
func (r *Repository) SetActive(ctx context.Context, id, teamID uuid.UUID, active bool, updatedAt time.Time) error {
	query := `UPDATE automation_rules SET is_active = $3, updated_at = $4 WHERE id = $1 AND team_id = $2`

	result, err := r.pool.Exec(ctx, query, id, teamID, active, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to toggle automation rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(ruleNotFoundMsg)
	}

	return nil
}

func marshalRuleBody(rule *domain.Rule) ([]byte, []byte, error) {
	conditions, err := json.Marshal(emptyIfNilConditions(rule.Conditions))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode rule conditions: %w", err)
	}
	steps, err := json.Marshal(emptyIfNilSteps(rule.Steps))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode rule steps: %w", err)
	}
	return conditions, steps, nil
}

func emptyIfNilConditions(c []domain.Condition) []domain.Condition {
	if c == nil {
		return []domain.Condition{}
	}
	return c
}

func emptyIfNilSteps(s []domain.ActionStep) []domain.ActionStep {
	if s == nil {
		return []domain.ActionStep{}
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*domain.Rule, error) {
	var (
		rule       domain.Rule
		trigger    string
		conditions []byte
		steps      []byte
	)

	err := row.Scan(
		&rule.ID, &rule.TeamID, &rule.Name, &trigger, &rule.IsActive,
		&conditions, &steps, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Trigger = domain.TriggerType(trigger)
	if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
		return nil, fmt.Errorf("failed to decode rule conditions: %w", err)
	}
	if err := json.Unmarshal(steps, &rule.Steps); err != nil {
		return nil, fmt.Errorf("failed to decode rule steps: %w", err)
	}

	return &rule, nil
}

func collectRules(rows pgx.Rows) ([]domain.Rule, error) {
	rules := make([]domain.Rule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read automation rules: %w", err)
	}

	return rules, nil
}
