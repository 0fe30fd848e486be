package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"salesops_backend/internal/automation/domain"
	"salesops_backend/internal/automation/engine"
	"salesops_backend/internal/automation/repository"
	"salesops_backend/internal/automation/transport"
	"salesops_backend/internal/scheduler"
	"salesops_backend/platform/apperr"

	"github.com/google/uuid"
)

// RuleRepository is the persistence interface for automation rules.
type RuleRepository interface {
	Create(ctx context.Context, rule *domain.Rule) error
	GetByID(ctx context.Context, id, teamID uuid.UUID) (*domain.Rule, error)
	List(ctx context.Context, teamID uuid.UUID) ([]domain.Rule, error)
	Update(ctx context.Context, rule *domain.Rule) error
	Delete(ctx context.Context, id, teamID uuid.UUID) error
	SetActive(ctx context.Context, id, teamID uuid.UUID, active bool, updatedAt time.Time) error
}

// StepLogReader lists persisted step execution outcomes.
type StepLogReader interface {
	ListByRule(ctx context.Context, ruleID, teamID uuid.UUID, limit int) ([]repository.StepLogRecord, error)
}

// Service implements rule management and event dispatch.
type Service struct {
	repo       RuleRepository
	stepLogs   StepLogReader
	dispatcher *engine.Dispatcher
	delays     scheduler.TriggerDelayScheduler
}

// New creates an automation service. The delay scheduler may be nil when
// Redis is not configured; delayed dispatch requests then fail.
func New(repo RuleRepository, stepLogs StepLogReader, dispatcher *engine.Dispatcher, delays scheduler.TriggerDelayScheduler) *Service {
	return &Service{repo: repo, stepLogs: stepLogs, dispatcher: dispatcher, delays: delays}
}

// CreateRule validates and stores a new rule.
func (s *Service) CreateRule(ctx context.Context, teamID uuid.UUID, req transport.CreateRuleRequest) (*transport.RuleResponse, error) {
	trigger := domain.TriggerType(req.Trigger)
	if !domain.IsKnownTrigger(trigger) {
		return nil, apperr.Validation(fmt.Sprintf("unknown trigger %q", req.Trigger))
	}

	conditions, err := conditionsFromDTO(req.Conditions)
	if err != nil {
		return nil, err
	}
	steps, err := stepsFromDTO(req.Steps)
	if err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	now := time.Now().UTC()
	rule := &domain.Rule{
		ID:         uuid.New(),
		TeamID:     teamID,
		Name:       req.Name,
		Trigger:    trigger,
		IsActive:   isActive,
		Conditions: conditions,
		Steps:      steps,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, err
	}

	resp := transport.RuleToResponse(*rule)
	return &resp, nil
}

// GetRule returns one rule scoped to the team.
func (s *Service) GetRule(ctx context.Context, id, teamID uuid.UUID) (*transport.RuleResponse, error) {
	rule, err := s.repo.GetByID(ctx, id, teamID)
	if err != nil {
		return nil, err
	}

	resp := transport.RuleToResponse(*rule)
	return &resp, nil
}

// ListRules returns all rules of the team.
func (s *Service) ListRules(ctx context.Context, teamID uuid.UUID) ([]transport.RuleResponse, error) {
	rules, err := s.repo.List(ctx, teamID)
	if err != nil {
		return nil, err
	}

	out := make([]transport.RuleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, transport.RuleToResponse(rule))
	}
	return out, nil
}

// UpdateRule applies a partial update to an existing rule.
func (s *Service) UpdateRule(ctx context.Context, id, teamID uuid.UUID, req transport.UpdateRuleRequest) (*transport.RuleResponse, error) {
	rule, err := s.repo.GetByID(ctx, id, teamID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Trigger != nil {
		trigger := domain.TriggerType(*req.Trigger)
		if !domain.IsKnownTrigger(trigger) {
			return nil, apperr.Validation(fmt.Sprintf("unknown trigger %q", *req.Trigger))
		}
		rule.Trigger = trigger
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if req.Conditions != nil {
		conditions, err := conditionsFromDTO(req.Conditions)
		if err != nil {
			return nil, err
		}
		rule.Conditions = conditions
	}
	if req.Steps != nil {
		steps, err := stepsFromDTO(req.Steps)
		if err != nil {
			return nil, err
		}
		rule.Steps = steps
	}
	rule.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, rule); err != nil {
		return nil, err
	}

	resp := transport.RuleToResponse(*rule)
	return &resp, nil
}

// DeleteRule removes a rule.
func (s *Service) DeleteRule(ctx context.Context, id, teamID uuid.UUID) error {
	return s.repo.Delete(ctx, id, teamID)
}

// SetRuleActive toggles a rule's enabled flag.
func (s *Service) SetRuleActive(ctx context.Context, id, teamID uuid.UUID, active bool) error {
	return s.repo.SetActive(ctx, id, teamID, active, time.Now().UTC())
}

// ListStepLogs returns recent execution outcomes for one rule.
func (s *Service) ListStepLogs(ctx context.Context, ruleID, teamID uuid.UUID, limit int) ([]transport.StepLogResponse, error) {
	records, err := s.stepLogs.ListByRule(ctx, ruleID, teamID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]transport.StepLogResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, transport.StepLogResponse{
			ID:         rec.ID,
			RuleID:     rec.RuleID,
			Trigger:    string(rec.Trigger),
			StepID:     rec.StepID,
			ActionType: string(rec.ActionType),
			Skipped:    rec.Skipped,
			SkipReason: rec.SkipReason,
			Channel:    rec.Channel,
			ProviderID: rec.ProviderID,
			CreatedAt:  rec.CreatedAt,
		})
	}
	return out, nil
}

// DispatchEvent validates the trigger and hands the event to the engine.
// Rule execution runs to completion before returning, but its outcome is
// never an error for the caller. With a positive delay the dispatch is
// enqueued for later instead.
func (s *Service) DispatchEvent(ctx context.Context, teamID uuid.UUID, req transport.DispatchEventRequest) error {
	trigger := domain.TriggerType(req.Trigger)
	if !domain.IsKnownTrigger(trigger) {
		return apperr.Validation(fmt.Sprintf("unknown trigger %q", req.Trigger))
	}

	if req.DelayMinutes > 0 {
		if s.delays == nil {
			return apperr.Internal("delayed dispatch requires the scheduler, which is not configured")
		}
		runAt := time.Now().UTC().Add(time.Duration(req.DelayMinutes) * time.Minute)
		return s.delays.ScheduleDelayedTrigger(ctx, scheduler.DelayedTriggerPayload{
			TeamID:       teamID.String(),
			Trigger:      string(trigger),
			EventPayload: req.Payload,
		}, runAt)
	}

	s.dispatcher.Dispatch(ctx, teamID, trigger, req.Payload)
	return nil
}

func conditionsFromDTO(dtos []transport.ConditionDTO) ([]domain.Condition, error) {
	conditions := make([]domain.Condition, 0, len(dtos))
	for _, dto := range dtos {
		op := domain.Operator(dto.Operator)
		if !domain.IsKnownOperator(op) {
			return nil, apperr.Validation(fmt.Sprintf("unknown operator %q", dto.Operator))
		}
		conditions = append(conditions, domain.Condition{
			Field:    dto.Field,
			Operator: op,
			Value:    dto.Value,
		})
	}
	return conditions, nil
}

// stepsFromDTO validates steps and renumbers them into a contiguous 1..n
// sequence preserving the client's relative order.
func stepsFromDTO(dtos []transport.StepDTO) ([]domain.ActionStep, error) {
	steps := make([]domain.ActionStep, 0, len(dtos))
	for _, dto := range dtos {
		action := domain.ActionType(dto.Type)
		if !domain.IsKnownAction(action) {
			return nil, apperr.Validation(fmt.Sprintf("unknown action type %q", dto.Type))
		}

		id := uuid.New()
		if dto.ID != nil && *dto.ID != uuid.Nil {
			id = *dto.ID
		}

		config := dto.Config
		if config == nil {
			config = map[string]any{}
		}

		steps = append(steps, domain.ActionStep{
			ID:     id,
			Order:  dto.Order,
			Type:   action,
			Config: config,
		})
	}

	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	for i := range steps {
		steps[i].Order = i + 1
	}

	return steps, nil
}
