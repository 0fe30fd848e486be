package engine

import (
	"context"

	"salesops_backend/internal/automation/domain"
	"salesops_backend/platform/logger"

	"github.com/google/uuid"
)

// RuleSource loads the active rules registered for a trigger within a team.
type RuleSource interface {
	ActiveRulesForTrigger(ctx context.Context, teamID uuid.UUID, trigger domain.TriggerType) ([]domain.Rule, error)
}

// ExecutionRecorder persists the per-step outcome of a rule run.
type ExecutionRecorder interface {
	RecordStepLogs(ctx context.Context, teamID, ruleID uuid.UUID, trigger domain.TriggerType, logs []domain.StepExecutionLog)
}

// Dispatcher matches trigger events against the rule set and runs matching
// rules. It is fire-and-forget: Dispatch never returns an error, so event
// producers are isolated from every automation failure.
type Dispatcher struct {
	rules    RuleSource
	executor *Executor
	recorder ExecutionRecorder
	log      *logger.Logger
}

// NewDispatcher creates a dispatcher over the given rule source and executor.
// The recorder may be nil when step logs are not persisted.
func NewDispatcher(rules RuleSource, executor *Executor, recorder ExecutionRecorder, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		rules:    rules,
		executor: executor,
		recorder: recorder,
		log:      log,
	}
}

// Dispatch finds the team's active rules for the trigger, evaluates each
// rule's conditions against the payload, and executes matched rules in step
// order. A failing or panicking step is logged and skipped; later steps and
// later rules still run.
func (d *Dispatcher) Dispatch(ctx context.Context, teamID uuid.UUID, trigger domain.TriggerType, payload map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("automation dispatch panicked", "team_id", teamID.String(), "trigger", string(trigger), "panic", r)
		}
	}()

	if !domain.IsKnownTrigger(trigger) {
		d.log.Warn("ignoring unknown trigger", "team_id", teamID.String(), "trigger", string(trigger))
		return
	}

	rules, err := d.rules.ActiveRulesForTrigger(ctx, teamID, trigger)
	if err != nil {
		d.log.DatabaseError("automation.rules.load", err)
		return
	}

	matched := 0
	executed := 0
	skipped := 0

	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if !EvaluateConditions(rule.Conditions, payload) {
			continue
		}
		matched++

		logs := d.runRule(ctx, teamID, rule, payload)
		for _, entry := range logs {
			if entry.Skipped {
				skipped++
			} else {
				executed++
			}
		}
		if d.recorder != nil && len(logs) > 0 {
			d.recorder.RecordStepLogs(ctx, teamID, rule.ID, trigger, logs)
		}
	}

	d.log.DispatchEvent(teamID.String(), string(trigger), matched, executed, skipped)
}

func (d *Dispatcher) runRule(ctx context.Context, teamID uuid.UUID, rule domain.Rule, payload map[string]any) []domain.StepExecutionLog {
	logs := make([]domain.StepExecutionLog, 0, len(rule.Steps))
	for _, step := range rule.OrderedSteps() {
		entry := d.executor.ExecuteStep(ctx, teamID, step, payload)
		if entry.Skipped {
			d.log.Warn("action step skipped",
				"team_id", teamID.String(),
				"rule_id", rule.ID.String(),
				"step_id", entry.StepID.String(),
				"action", string(entry.ActionType),
				"reason", entry.SkipReason,
			)
		}
		logs = append(logs, entry)
	}
	return logs
}
