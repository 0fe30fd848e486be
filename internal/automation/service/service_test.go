package service

import (
	"context"
	"testing"
	"time"

	"salesops_backend/internal/automation/domain"
	"salesops_backend/internal/automation/repository"
	"salesops_backend/internal/automation/transport"
	"salesops_backend/internal/scheduler"
	"salesops_backend/platform/apperr"

	"github.com/google/uuid"
)

type fakeRuleRepo struct {
	created []*domain.Rule
}

func (f *fakeRuleRepo) Create(ctx context.Context, rule *domain.Rule) error {
	f.created = append(f.created, rule)
	return nil
}

func (f *fakeRuleRepo) GetByID(ctx context.Context, id, teamID uuid.UUID) (*domain.Rule, error) {
	return nil, apperr.NotFound("automation rule not found")
}

func (f *fakeRuleRepo) List(ctx context.Context, teamID uuid.UUID) ([]domain.Rule, error) {
	return nil, nil
}

func (f *fakeRuleRepo) Update(ctx context.Context, rule *domain.Rule) error { return nil }

func (f *fakeRuleRepo) Delete(ctx context.Context, id, teamID uuid.UUID) error { return nil }

func (f *fakeRuleRepo) SetActive(ctx context.Context, id, teamID uuid.UUID, active bool, updatedAt time.Time) error {
	return nil
}

type fakeStepLogs struct{}

func (fakeStepLogs) ListByRule(ctx context.Context, ruleID, teamID uuid.UUID, limit int) ([]repository.StepLogRecord, error) {
	return nil, nil
}

type fakeDelayScheduler struct {
	payloads []scheduler.DelayedTriggerPayload
	runAts   []time.Time
}

func (f *fakeDelayScheduler) ScheduleDelayedTrigger(ctx context.Context, payload scheduler.DelayedTriggerPayload, runAt time.Time) error {
	f.payloads = append(f.payloads, payload)
	f.runAts = append(f.runAts, runAt)
	return nil
}

func TestCreateRuleRenumbersSteps(t *testing.T) {
	repo := &fakeRuleRepo{}
	svc := New(repo, fakeStepLogs{}, nil, nil)

	_, err := svc.CreateRule(context.Background(), uuid.New(), transport.CreateRuleRequest{
		Name:    "follow up",
		Trigger: "lead_created",
		Steps: []transport.StepDTO{
			{Order: 7, Type: "add_tag", Config: map[string]any{"record_id": "r", "tag": "late"}},
			{Order: 2, Type: "add_task", Config: map[string]any{"title": "call"}},
		},
	})
	if err != nil {
		t.Fatalf("CreateRule returned error: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 rule created, got %d", len(repo.created))
	}

	rule := repo.created[0]
	if !rule.IsActive {
		t.Fatal("rule must default to active")
	}
	if len(rule.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(rule.Steps))
	}
	if rule.Steps[0].Order != 1 || rule.Steps[0].Type != domain.ActionAddTask {
		t.Fatalf("expected add_task first with order 1, got %v order %d", rule.Steps[0].Type, rule.Steps[0].Order)
	}
	if rule.Steps[1].Order != 2 || rule.Steps[1].Type != domain.ActionAddTag {
		t.Fatalf("expected add_tag second with order 2, got %v order %d", rule.Steps[1].Type, rule.Steps[1].Order)
	}
}

func TestCreateRuleRejectsUnknownTrigger(t *testing.T) {
	svc := New(&fakeRuleRepo{}, fakeStepLogs{}, nil, nil)

	_, err := svc.CreateRule(context.Background(), uuid.New(), transport.CreateRuleRequest{
		Name:    "bad",
		Trigger: "lead_deleted",
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDispatchEventWithDelaySchedules(t *testing.T) {
	delays := &fakeDelayScheduler{}
	svc := New(&fakeRuleRepo{}, fakeStepLogs{}, nil, delays)
	teamID := uuid.New()

	before := time.Now().UTC()
	err := svc.DispatchEvent(context.Background(), teamID, transport.DispatchEventRequest{
		Trigger:      "payment_received",
		Payload:      map[string]any{"amountCents": 5000.0},
		DelayMinutes: 30,
	})
	if err != nil {
		t.Fatalf("DispatchEvent returned error: %v", err)
	}

	if len(delays.payloads) != 1 {
		t.Fatalf("expected 1 scheduled dispatch, got %d", len(delays.payloads))
	}
	got := delays.payloads[0]
	if got.TeamID != teamID.String() || got.Trigger != "payment_received" {
		t.Fatalf("unexpected scheduled payload: %+v", got)
	}
	if got.EventPayload["amountCents"] != 5000.0 {
		t.Fatalf("event payload not forwarded: %v", got.EventPayload)
	}

	wantMin := before.Add(30 * time.Minute)
	if delays.runAts[0].Before(wantMin) || delays.runAts[0].After(wantMin.Add(time.Minute)) {
		t.Fatalf("runAt %v not ~30m after %v", delays.runAts[0], before)
	}
}

func TestDispatchEventDelayWithoutSchedulerFails(t *testing.T) {
	svc := New(&fakeRuleRepo{}, fakeStepLogs{}, nil, nil)

	err := svc.DispatchEvent(context.Background(), uuid.New(), transport.DispatchEventRequest{
		Trigger:      "lead_created",
		DelayMinutes: 5,
	})
	if apperr.GetKind(err) != apperr.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}
