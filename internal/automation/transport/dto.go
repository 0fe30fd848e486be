package transport

import (
	"time"

	"salesops_backend/internal/automation/domain"

	"github.com/google/uuid"
)

// ConditionDTO is the wire form of a rule condition.
type ConditionDTO struct {
	Field    string `json:"field" validate:"required,min=1,max=200"`
	Operator string `json:"operator" validate:"required,oneof=equals not_equals contains gt lt in"`
	Value    any    `json:"value"`
}

// StepDTO is the wire form of an action step. Order is optional on input;
// steps are renumbered by list position when absent or colliding.
type StepDTO struct {
	ID     *uuid.UUID     `json:"id,omitempty"`
	Order  int            `json:"order"`
	Type   string         `json:"type" validate:"required,oneof=send_message add_task add_tag notify_team enqueue_dialer custom_webhook"`
	Config map[string]any `json:"config"`
}

// CreateRuleRequest is the request body for creating an automation rule
type CreateRuleRequest struct {
	Name       string         `json:"name" validate:"required,min=1,max=200"`
	Trigger    string         `json:"trigger" validate:"required"`
	IsActive   *bool          `json:"isActive,omitempty"`
	Conditions []ConditionDTO `json:"conditions" validate:"dive"`
	Steps      []StepDTO      `json:"steps" validate:"required,min=1,dive"`
}

// UpdateRuleRequest is the request body for updating an automation rule
type UpdateRuleRequest struct {
	Name       *string        `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Trigger    *string        `json:"trigger,omitempty"`
	IsActive   *bool          `json:"isActive,omitempty"`
	Conditions []ConditionDTO `json:"conditions,omitempty" validate:"omitempty,dive"`
	Steps      []StepDTO      `json:"steps,omitempty" validate:"omitempty,min=1,dive"`
}

// SetRuleActiveRequest toggles a rule without editing its body.
type SetRuleActiveRequest struct {
	IsActive bool `json:"isActive"`
}

// DispatchEventRequest is the request body for injecting a trigger event.
// A positive DelayMinutes defers the dispatch via the scheduler instead of
// running it inline.
type DispatchEventRequest struct {
	Trigger      string         `json:"trigger" validate:"required"`
	Payload      map[string]any `json:"payload"`
	DelayMinutes int            `json:"delayMinutes" validate:"omitempty,min=1,max=43200"`
}

// RuleResponse is the response body for an automation rule
type RuleResponse struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	Trigger    string         `json:"trigger"`
	IsActive   bool           `json:"isActive"`
	Conditions []ConditionDTO `json:"conditions"`
	Steps      []StepDTO      `json:"steps"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// StepLogResponse is the response body for one recorded step execution.
type StepLogResponse struct {
	ID         uuid.UUID `json:"id"`
	RuleID     uuid.UUID `json:"ruleId"`
	Trigger    string    `json:"trigger"`
	StepID     uuid.UUID `json:"stepId"`
	ActionType string    `json:"actionType"`
	Skipped    bool      `json:"skipped"`
	SkipReason *string   `json:"skipReason,omitempty"`
	Channel    *string   `json:"channel,omitempty"`
	ProviderID *string   `json:"providerId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RuleToResponse maps a domain rule to its wire form.
func RuleToResponse(rule domain.Rule) RuleResponse {
	conditions := make([]ConditionDTO, 0, len(rule.Conditions))
	for _, c := range rule.Conditions {
		conditions = append(conditions, ConditionDTO{
			Field:    c.Field,
			Operator: string(c.Operator),
			Value:    c.Value,
		})
	}

	steps := make([]StepDTO, 0, len(rule.Steps))
	for _, s := range rule.OrderedSteps() {
		id := s.ID
		steps = append(steps, StepDTO{
			ID:     &id,
			Order:  s.Order,
			Type:   string(s.Type),
			Config: s.Config,
		})
	}

	return RuleResponse{
		ID:         rule.ID,
		Name:       rule.Name,
		Trigger:    string(rule.Trigger),
		IsActive:   rule.IsActive,
		Conditions: conditions,
		Steps:      steps,
		CreatedAt:  rule.CreatedAt,
		UpdatedAt:  rule.UpdatedAt,
	}
}
