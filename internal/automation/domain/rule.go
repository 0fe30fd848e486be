// Package domain defines the automation rule model: triggers, conditions,
// action steps, and per-step execution outcomes.
package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// TriggerType is a named business event category that can activate rules.
type TriggerType string

const (
	TriggerLeadCreated            TriggerType = "lead_created"
	TriggerAppointmentBooked      TriggerType = "appointment_booked"
	TriggerAppointmentRescheduled TriggerType = "appointment_rescheduled"
	TriggerAppointmentNoShow      TriggerType = "appointment_no_show"
	TriggerAppointmentCompleted   TriggerType = "appointment_completed"
	TriggerPaymentReceived        TriggerType = "payment_received"
	TriggerTimeDelay              TriggerType = "time_delay"
	TriggerConfirmationDue        TriggerType = "confirmation_due"
	TriggerConfirmationOverdue    TriggerType = "confirmation_overdue"
)

var knownTriggers = map[TriggerType]struct{}{
	TriggerLeadCreated:            {},
	TriggerAppointmentBooked:      {},
	TriggerAppointmentRescheduled: {},
	TriggerAppointmentNoShow:      {},
	TriggerAppointmentCompleted:   {},
	TriggerPaymentReceived:        {},
	TriggerTimeDelay:              {},
	TriggerConfirmationDue:        {},
	TriggerConfirmationOverdue:    {},
}

// IsKnownTrigger reports whether the trigger belongs to the closed enumeration.
func IsKnownTrigger(trigger TriggerType) bool {
	_, ok := knownTriggers[trigger]
	return ok
}

// Operator is a condition comparison operator.
type Operator string

const (
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "not_equals"
	OpContains  Operator = "contains"
	OpGt        Operator = "gt"
	OpLt        Operator = "lt"
	OpIn        Operator = "in"
)

var knownOperators = map[Operator]struct{}{
	OpEquals:    {},
	OpNotEquals: {},
	OpContains:  {},
	OpGt:        {},
	OpLt:        {},
	OpIn:        {},
}

// IsKnownOperator reports whether the operator is supported.
func IsKnownOperator(op Operator) bool {
	_, ok := knownOperators[op]
	return ok
}

// Condition is a single predicate tested against an event payload field.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// ActionType identifies the kind of side effect a step performs.
type ActionType string

const (
	ActionSendMessage   ActionType = "send_message"
	ActionAddTask       ActionType = "add_task"
	ActionAddTag        ActionType = "add_tag"
	ActionNotifyTeam    ActionType = "notify_team"
	ActionEnqueueDialer ActionType = "enqueue_dialer"
	ActionCustomWebhook ActionType = "custom_webhook"
)

var knownActions = map[ActionType]struct{}{
	ActionSendMessage:   {},
	ActionAddTask:       {},
	ActionAddTag:        {},
	ActionNotifyTeam:    {},
	ActionEnqueueDialer: {},
	ActionCustomWebhook: {},
}

// IsKnownAction reports whether the action type is supported.
func IsKnownAction(action ActionType) bool {
	_, ok := knownActions[action]
	return ok
}

// ActionStep is one discrete effect performed when a rule passes.
// Steps execute in ascending Order; the Config shape is action-specific.
type ActionStep struct {
	ID     uuid.UUID      `json:"id"`
	Order  int            `json:"order"`
	Type   ActionType     `json:"type"`
	Config map[string]any `json:"config"`
}

// Rule matches one trigger type and fires an ordered sequence of steps.
// Conditions are AND-combined; an empty list always passes.
type Rule struct {
	ID         uuid.UUID
	TeamID     uuid.UUID
	Name       string
	Trigger    TriggerType
	IsActive   bool
	Conditions []Condition
	Steps      []ActionStep
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderedSteps returns the steps sorted by ascending Order. The receiver's
// slice is not modified.
func (r Rule) OrderedSteps() []ActionStep {
	steps := make([]ActionStep, len(r.Steps))
	copy(steps, r.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps
}

// StepExecutionLog records one step attempt, produced regardless of outcome.
type StepExecutionLog struct {
	StepID     uuid.UUID  `json:"stepId"`
	ActionType ActionType `json:"actionType"`
	Skipped    bool       `json:"skipped"`
	SkipReason string     `json:"skipReason,omitempty"`
	Channel    string     `json:"channel,omitempty"`
	ProviderID string     `json:"providerId,omitempty"`
}
