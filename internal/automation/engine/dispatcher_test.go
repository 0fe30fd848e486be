package engine

import (
	"context"
	"errors"
	"testing"

	"salesops_backend/internal/automation/domain"
	"salesops_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRuleSource struct {
	rules []domain.Rule
	err   error
}

func (f *fakeRuleSource) ActiveRulesForTrigger(_ context.Context, _ uuid.UUID, _ domain.TriggerType) ([]domain.Rule, error) {
	return f.rules, f.err
}

type fakeRecorder struct {
	ruleIDs []uuid.UUID
	logs    [][]domain.StepExecutionLog
}

func (f *fakeRecorder) RecordStepLogs(_ context.Context, _, ruleID uuid.UUID, _ domain.TriggerType, logs []domain.StepExecutionLog) {
	f.ruleIDs = append(f.ruleIDs, ruleID)
	f.logs = append(f.logs, logs)
}

func newTestDispatcher(source RuleSource, store *fakeTaskStore, recorder ExecutionRecorder) *Dispatcher {
	log := logger.New("development")
	exec := NewExecutor(&fakeSender{}, store, &fakeWebhook{}, log)
	return NewDispatcher(source, exec, recorder, log)
}

func rule(trigger domain.TriggerType, conditions []domain.Condition, steps ...domain.ActionStep) domain.Rule {
	return domain.Rule{
		ID:         uuid.New(),
		TeamID:     uuid.New(),
		Name:       "test rule",
		Trigger:    trigger,
		IsActive:   true,
		Conditions: conditions,
		Steps:      steps,
	}
}

func TestDispatchExecutesStepsInOrder(t *testing.T) {
	store := &fakeTaskStore{}
	r := rule(domain.TriggerLeadCreated, nil,
		domain.ActionStep{ID: uuid.New(), Order: 2, Type: domain.ActionAddTag, Config: map[string]any{"record_id": "lead-1", "tag": "second"}},
		domain.ActionStep{ID: uuid.New(), Order: 1, Type: domain.ActionAddTag, Config: map[string]any{"record_id": "lead-1", "tag": "first"}},
	)
	d := newTestDispatcher(&fakeRuleSource{rules: []domain.Rule{r}}, store, nil)

	d.Dispatch(context.Background(), r.TeamID, domain.TriggerLeadCreated, map[string]any{"leadId": "lead-1"})

	if len(store.tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", store.tags)
	}
	if store.tags[0] != "lead-1:first" || store.tags[1] != "lead-1:second" {
		t.Fatalf("steps ran out of order: %v", store.tags)
	}
}

func TestDispatchFailingStepDoesNotStopLaterSteps(t *testing.T) {
	store := &fakeTaskStore{}
	r := rule(domain.TriggerLeadCreated, nil,
		domain.ActionStep{ID: uuid.New(), Order: 1, Type: domain.ActionAddTag, Config: map[string]any{}},
		domain.ActionStep{ID: uuid.New(), Order: 2, Type: domain.ActionNotifyTeam, Config: map[string]any{"message": "still runs"}},
	)
	recorder := &fakeRecorder{}
	d := newTestDispatcher(&fakeRuleSource{rules: []domain.Rule{r}}, store, recorder)

	d.Dispatch(context.Background(), r.TeamID, domain.TriggerLeadCreated, nil)

	if len(store.notices) != 1 {
		t.Fatalf("expected second step to run, notices: %v", store.notices)
	}
	if len(recorder.logs) != 1 || len(recorder.logs[0]) != 2 {
		t.Fatalf("expected one log batch with two entries, got %+v", recorder.logs)
	}
	if !recorder.logs[0][0].Skipped {
		t.Fatal("expected first step log to be a skip")
	}
	if recorder.logs[0][1].Skipped {
		t.Fatal("expected second step log to be a success")
	}
}

func TestDispatchSkipsNonMatchingRules(t *testing.T) {
	store := &fakeTaskStore{}
	matching := rule(domain.TriggerAppointmentNoShow,
		[]domain.Condition{{Field: "status", Operator: domain.OpEquals, Value: "no_show"}},
		domain.ActionStep{ID: uuid.New(), Order: 1, Type: domain.ActionNotifyTeam, Config: map[string]any{"message": "matched"}},
	)
	nonMatching := rule(domain.TriggerAppointmentNoShow,
		[]domain.Condition{{Field: "status", Operator: domain.OpEquals, Value: "completed"}},
		domain.ActionStep{ID: uuid.New(), Order: 1, Type: domain.ActionNotifyTeam, Config: map[string]any{"message": "should not run"}},
	)
	d := newTestDispatcher(&fakeRuleSource{rules: []domain.Rule{nonMatching, matching}}, store, nil)

	d.Dispatch(context.Background(), matching.TeamID, domain.TriggerAppointmentNoShow, map[string]any{"status": "no_show"})

	if len(store.notices) != 1 || store.notices[0] != "matched" {
		t.Fatalf("expected only matching rule to fire, notices: %v", store.notices)
	}
}

func TestDispatchSkipsInactiveRules(t *testing.T) {
	store := &fakeTaskStore{}
	r := rule(domain.TriggerLeadCreated, nil,
		domain.ActionStep{ID: uuid.New(), Order: 1, Type: domain.ActionNotifyTeam, Config: map[string]any{"message": "x"}},
	)
	r.IsActive = false
	d := newTestDispatcher(&fakeRuleSource{rules: []domain.Rule{r}}, store, nil)

	d.Dispatch(context.Background(), r.TeamID, domain.TriggerLeadCreated, nil)

	if len(store.notices) != 0 {
		t.Fatalf("inactive rule must not fire, notices: %v", store.notices)
	}
}

func TestDispatchSwallowsRuleLoadError(t *testing.T) {
	d := newTestDispatcher(&fakeRuleSource{err: errors.New("db unavailable")}, &fakeTaskStore{}, nil)

	// Must not panic and must not propagate the error.
	d.Dispatch(context.Background(), uuid.New(), domain.TriggerLeadCreated, nil)
}

func TestDispatchIgnoresUnknownTrigger(t *testing.T) {
	store := &fakeTaskStore{}
	r := rule(domain.TriggerLeadCreated, nil,
		domain.ActionStep{ID: uuid.New(), Order: 1, Type: domain.ActionNotifyTeam, Config: map[string]any{"message": "x"}},
	)
	d := newTestDispatcher(&fakeRuleSource{rules: []domain.Rule{r}}, store, nil)

	d.Dispatch(context.Background(), r.TeamID, "meteor_strike", nil)

	if len(store.notices) != 0 {
		t.Fatalf("unknown trigger must dispatch nothing, notices: %v", store.notices)
	}
}

func TestDispatchMalformedConditionFailsClosed(t *testing.T) {
	store := &fakeTaskStore{}
	r := rule(domain.TriggerLeadCreated,
		[]domain.Condition{{Field: "status", Operator: domain.OpGt, Value: func() {}}},
		domain.ActionStep{ID: uuid.New(), Order: 1, Type: domain.ActionNotifyTeam, Config: map[string]any{"message": "x"}},
	)
	d := newTestDispatcher(&fakeRuleSource{rules: []domain.Rule{r}}, store, nil)

	d.Dispatch(context.Background(), r.TeamID, domain.TriggerLeadCreated, map[string]any{"status": "booked"})

	if len(store.notices) != 0 {
		t.Fatalf("malformed condition must fail closed, notices: %v", store.notices)
	}
}

func TestDispatchNoRulesIsNoOp(t *testing.T) {
	store := &fakeTaskStore{}
	d := newTestDispatcher(&fakeRuleSource{}, store, nil)

	d.Dispatch(context.Background(), uuid.New(), domain.TriggerPaymentReceived, map[string]any{"amount": 100})

	if len(store.notices)+len(store.tags)+len(store.tasks)+len(store.dials) != 0 {
		t.Fatal("dispatch with no rules must have no side effects")
	}
}
