package service

import (
	"context"
	"testing"
	"time"

	"salesops_backend/internal/confirmation/domain"
	"salesops_backend/internal/confirmation/transport"
	"salesops_backend/internal/scheduler"
	"salesops_backend/platform/apperr"
	"salesops_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeConfigStore struct {
	config []domain.StepConfig
	saved  []domain.StepConfig
}

func (f *fakeConfigStore) LoadConfig(_ context.Context, _ uuid.UUID) ([]domain.StepConfig, error) {
	return f.config, nil
}

func (f *fakeConfigStore) ReplaceConfig(_ context.Context, _ uuid.UUID, config []domain.StepConfig) error {
	f.saved = config
	f.config = config
	return nil
}

type fakeTaskStore struct {
	tasks map[uuid.UUID]domain.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]domain.Task)}
}

func (f *fakeTaskStore) ReplaceTasksForAppointment(_ context.Context, appointmentID uuid.UUID, tasks []domain.Task) error {
	for id, task := range f.tasks {
		if task.AppointmentID == appointmentID {
			delete(f.tasks, id)
		}
	}
	for _, task := range tasks {
		f.tasks[task.ID] = task
	}
	return nil
}

func (f *fakeTaskStore) GetTask(_ context.Context, taskID, _ uuid.UUID) (*domain.Task, error) {
	task, ok := f.tasks[taskID]
	if !ok {
		return nil, apperr.NotFound("confirmation task not found")
	}
	return &task, nil
}

func (f *fakeTaskStore) ListTasksForAppointment(_ context.Context, appointmentID, _ uuid.UUID) ([]domain.Task, error) {
	out := make([]domain.Task, 0)
	for _, task := range f.tasks {
		if task.AppointmentID == appointmentID {
			out = append(out, task)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) AppendAttempt(_ context.Context, taskID, _ uuid.UUID, attempt domain.Attempt) (*domain.Task, error) {
	task, ok := f.tasks[taskID]
	if !ok {
		return nil, apperr.NotFound("confirmation task not found")
	}
	updated, err := domain.RecordAttempt(task, attempt)
	if err != nil {
		return nil, err
	}
	f.tasks[taskID] = updated
	return &updated, nil
}

type fakeScheduler struct {
	dueChecks     []scheduler.ConfirmationCheckPayload
	overdueChecks []scheduler.ConfirmationCheckPayload
	dueTimes      []time.Time
	overdueTimes  []time.Time
}

func (f *fakeScheduler) ScheduleConfirmationDue(_ context.Context, payload scheduler.ConfirmationCheckPayload, runAt time.Time) error {
	f.dueChecks = append(f.dueChecks, payload)
	f.dueTimes = append(f.dueTimes, runAt)
	return nil
}

func (f *fakeScheduler) ScheduleConfirmationOverdue(_ context.Context, payload scheduler.ConfirmationCheckPayload, runAt time.Time) error {
	f.overdueChecks = append(f.overdueChecks, payload)
	f.overdueTimes = append(f.overdueTimes, runAt)
	return nil
}

func newTestService(configs *fakeConfigStore, tasks *fakeTaskStore, sched scheduler.ConfirmationScheduler) *Service {
	return New(configs, tasks, sched, logger.New("development"))
}

func enabledConfig(teamID uuid.UUID) []domain.StepConfig {
	return []domain.StepConfig{
		{ID: uuid.New(), TeamID: teamID, Sequence: 1, HoursBefore: 24, Label: "day before", AssignedRole: domain.RoleSetter, Enabled: true},
		{ID: uuid.New(), TeamID: teamID, Sequence: 2, HoursBefore: 4, Label: "morning of", AssignedRole: domain.RoleSetter, Enabled: true},
		{ID: uuid.New(), TeamID: teamID, Sequence: 3, HoursBefore: 0.5, Label: "final check", AssignedRole: domain.RoleCloser, Enabled: true},
	}
}

func TestGenerateForAppointmentSchedulesChecks(t *testing.T) {
	teamID := uuid.New()
	appointmentID := uuid.New()
	configs := &fakeConfigStore{config: enabledConfig(teamID)}
	tasks := newFakeTaskStore()
	sched := &fakeScheduler{}
	svc := newTestService(configs, tasks, sched)

	startAt := time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)
	generated, err := svc.GenerateForAppointment(context.Background(), teamID, appointmentID, startAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(generated) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(generated))
	}
	if len(tasks.tasks) != 3 {
		t.Fatalf("expected 3 stored tasks, got %d", len(tasks.tasks))
	}
	if len(sched.dueChecks) != 3 || len(sched.overdueChecks) != 3 {
		t.Fatalf("expected 3 due and 3 overdue checks, got %d and %d", len(sched.dueChecks), len(sched.overdueChecks))
	}
	for i, task := range generated {
		if !sched.dueTimes[i].Equal(task.DueAt) {
			t.Fatalf("due check %d scheduled at %v, want %v", i, sched.dueTimes[i], task.DueAt)
		}
		if !sched.overdueTimes[i].Equal(task.DueAt.Add(overdueGrace)) {
			t.Fatalf("overdue check %d scheduled at %v, want %v", i, sched.overdueTimes[i], task.DueAt.Add(overdueGrace))
		}
	}
}

func TestGenerateForAppointmentIsIdempotent(t *testing.T) {
	teamID := uuid.New()
	appointmentID := uuid.New()
	configs := &fakeConfigStore{config: enabledConfig(teamID)}
	tasks := newFakeTaskStore()
	svc := newTestService(configs, tasks, nil)

	startAt := time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)
	if _, err := svc.GenerateForAppointment(context.Background(), teamID, appointmentID, startAt); err != nil {
		t.Fatalf("first generation failed: %v", err)
	}
	// Reschedule: regenerate against a new start time.
	if _, err := svc.GenerateForAppointment(context.Background(), teamID, appointmentID, startAt.Add(24*time.Hour)); err != nil {
		t.Fatalf("second generation failed: %v", err)
	}

	if len(tasks.tasks) != 3 {
		t.Fatalf("regeneration must replace, not append: got %d tasks", len(tasks.tasks))
	}
	for _, task := range tasks.tasks {
		if task.RequiredConfirmations != 3 {
			t.Fatalf("required count doubled on regeneration: %d", task.RequiredConfirmations)
		}
	}
}

func TestReplaceConfigRenumbers(t *testing.T) {
	teamID := uuid.New()
	configs := &fakeConfigStore{}
	svc := newTestService(configs, newFakeTaskStore(), nil)

	result, err := svc.ReplaceConfig(context.Background(), teamID, transport.ReplaceConfigRequest{
		Steps: []transport.StepConfigDTO{
			{Sequence: 1, HoursBefore: 24, Label: "day before", AssignedRole: "setter", Enabled: true},
			{Sequence: 3, HoursBefore: 0.5, Label: "final check", AssignedRole: "closer", Enabled: true},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result))
	}
	if result[0].Sequence != 1 || result[1].Sequence != 2 {
		t.Fatalf("sequences not contiguous: %d, %d", result[0].Sequence, result[1].Sequence)
	}
}

func TestReplaceConfigRejectsUnknownRole(t *testing.T) {
	svc := newTestService(&fakeConfigStore{}, newFakeTaskStore(), nil)

	_, err := svc.ReplaceConfig(context.Background(), uuid.New(), transport.ReplaceConfigRequest{
		Steps: []transport.StepConfigDTO{
			{Sequence: 1, HoursBefore: 24, Label: "day before", AssignedRole: "manager", Enabled: true},
		},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation kind, got %v", apperr.GetKind(err))
	}
}

func TestRecordAttemptConflictWhenDone(t *testing.T) {
	teamID := uuid.New()
	appointmentID := uuid.New()
	configs := &fakeConfigStore{config: []domain.StepConfig{
		{ID: uuid.New(), TeamID: teamID, Sequence: 1, HoursBefore: 4, Label: "check", AssignedRole: domain.RoleSetter, Enabled: true},
	}}
	tasks := newFakeTaskStore()
	svc := newTestService(configs, tasks, nil)

	generated, err := svc.GenerateForAppointment(context.Background(), teamID, appointmentID, time.Now().Add(48*time.Hour))
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	taskID := generated[0].ID

	req := transport.RecordAttemptRequest{ConfirmedBy: "ops"}
	resp, err := svc.RecordAttempt(context.Background(), taskID, teamID, req)
	if err != nil {
		t.Fatalf("first attempt failed: %v", err)
	}
	if !resp.IsDone {
		t.Fatal("expected task done after first attempt (required=1)")
	}

	_, err = svc.RecordAttempt(context.Background(), taskID, teamID, req)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on attempt past done, got %v", err)
	}
}

func TestListTasksTimelineOrderAndDerivedFields(t *testing.T) {
	teamID := uuid.New()
	appointmentID := uuid.New()
	configs := &fakeConfigStore{config: enabledConfig(teamID)}
	tasks := newFakeTaskStore()
	svc := newTestService(configs, tasks, nil)

	// One task already past due, two in the future.
	if _, err := svc.GenerateForAppointment(context.Background(), teamID, appointmentID, time.Now().Add(5*time.Hour)); err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	listed, err := svc.ListTasks(context.Background(), appointmentID, teamID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(listed))
	}

	for i := 1; i < len(listed); i++ {
		if listed[i].DueAtUtc.Before(listed[i-1].DueAtUtc) {
			t.Fatal("timeline must be ordered by ascending due time")
		}
	}

	// The 24h-before step is overdue for an appointment 5h out.
	if !listed[0].IsOverdue {
		t.Fatal("first timeline entry should be overdue")
	}
	if listed[0].Urgency != string(domain.UrgencyOverdue) {
		t.Fatalf("expected overdue urgency, got %s", listed[0].Urgency)
	}
	if listed[len(listed)-1].IsOverdue {
		t.Fatal("future task must not be overdue")
	}
}
