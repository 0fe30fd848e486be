package service

import (
	"context"
	"fmt"
	"time"

	"salesops_backend/internal/confirmation/domain"
	"salesops_backend/internal/confirmation/transport"
	"salesops_backend/internal/scheduler"
	"salesops_backend/platform/apperr"
	"salesops_backend/platform/logger"

	"github.com/google/uuid"
)

// overdueGrace is how long past the due time the overdue check fires.
const overdueGrace = 15 * time.Minute

// ConfigStore is the persistence interface for confirmation configuration.
type ConfigStore interface {
	LoadConfig(ctx context.Context, teamID uuid.UUID) ([]domain.StepConfig, error)
	ReplaceConfig(ctx context.Context, teamID uuid.UUID, config []domain.StepConfig) error
}

// TaskStore is the persistence interface for confirmation tasks.
type TaskStore interface {
	ReplaceTasksForAppointment(ctx context.Context, appointmentID uuid.UUID, tasks []domain.Task) error
	GetTask(ctx context.Context, taskID, teamID uuid.UUID) (*domain.Task, error)
	ListTasksForAppointment(ctx context.Context, appointmentID, teamID uuid.UUID) ([]domain.Task, error)
	AppendAttempt(ctx context.Context, taskID, teamID uuid.UUID, attempt domain.Attempt) (*domain.Task, error)
}

// Service implements confirmation configuration and task lifecycle.
type Service struct {
	configs   ConfigStore
	tasks     TaskStore
	scheduler scheduler.ConfirmationScheduler
	log       *logger.Logger
}

// New creates a confirmation service. The scheduler may be nil when
// time-anchored checks are disabled.
func New(configs ConfigStore, tasks TaskStore, sched scheduler.ConfirmationScheduler, log *logger.Logger) *Service {
	return &Service{configs: configs, tasks: tasks, scheduler: sched, log: log}
}

// GetConfig returns the team's confirmation steps in sequence order.
func (s *Service) GetConfig(ctx context.Context, teamID uuid.UUID) ([]transport.StepConfigDTO, error) {
	config, err := s.configs.LoadConfig(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return transport.ConfigToDTO(config), nil
}

// ReplaceConfig validates, renumbers, and stores the team's step list.
// Sequences are always rewritten to a contiguous 1..n run, so removing or
// reordering entries client-side cannot leave gaps.
func (s *Service) ReplaceConfig(ctx context.Context, teamID uuid.UUID, req transport.ReplaceConfigRequest) ([]transport.StepConfigDTO, error) {
	config := make([]domain.StepConfig, 0, len(req.Steps))
	for i, dto := range req.Steps {
		role := domain.Role(dto.AssignedRole)
		if !domain.IsKnownRole(role) {
			return nil, apperr.Validation(fmt.Sprintf("unknown role %q", dto.AssignedRole))
		}

		id := uuid.New()
		if dto.ID != nil && *dto.ID != uuid.Nil {
			id = *dto.ID
		}

		sequence := dto.Sequence
		if sequence <= 0 {
			sequence = i + 1
		}

		config = append(config, domain.StepConfig{
			ID:           id,
			TeamID:       teamID,
			Sequence:     sequence,
			HoursBefore:  dto.HoursBefore,
			Label:        dto.Label,
			AssignedRole: role,
			Enabled:      dto.Enabled,
		})
	}

	config = domain.Renumber(config)
	if err := s.configs.ReplaceConfig(ctx, teamID, config); err != nil {
		return nil, err
	}

	return transport.ConfigToDTO(config), nil
}

// GenerateForAppointment derives the appointment's task set from the current
// config and replaces any previous set, then schedules due and overdue
// checks. Regeneration after a reschedule reuses the same path.
func (s *Service) GenerateForAppointment(ctx context.Context, teamID, appointmentID uuid.UUID, startAt time.Time) ([]domain.Task, error) {
	config, err := s.configs.LoadConfig(ctx, teamID)
	if err != nil {
		return nil, err
	}

	tasks := domain.GenerateTasks(appointmentID, teamID, startAt, config, time.Now())
	if err := s.tasks.ReplaceTasksForAppointment(ctx, appointmentID, tasks); err != nil {
		return nil, err
	}

	s.scheduleChecks(ctx, tasks)
	return tasks, nil
}

func (s *Service) scheduleChecks(ctx context.Context, tasks []domain.Task) {
	if s.scheduler == nil {
		return
	}

	for _, task := range tasks {
		payload := scheduler.ConfirmationCheckPayload{
			TaskID: task.ID.String(),
			TeamID: task.TeamID.String(),
		}
		if err := s.scheduler.ScheduleConfirmationDue(ctx, payload, task.DueAt); err != nil {
			s.log.Error("failed to schedule due check", "task_id", task.ID.String(), "error", err)
		}
		if err := s.scheduler.ScheduleConfirmationOverdue(ctx, payload, task.DueAt.Add(overdueGrace)); err != nil {
			s.log.Error("failed to schedule overdue check", "task_id", task.ID.String(), "error", err)
		}
	}
}

// ListTasks returns the appointment's tasks in timeline order with derived
// overdue and urgency fields computed at read time.
func (s *Service) ListTasks(ctx context.Context, appointmentID, teamID uuid.UUID) ([]transport.TaskResponse, error) {
	tasks, err := s.tasks.ListTasksForAppointment(ctx, appointmentID, teamID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := make([]transport.TaskResponse, 0, len(tasks))
	for _, task := range domain.TimelineOrder(tasks) {
		out = append(out, transport.TaskToResponse(task, now))
	}
	return out, nil
}

// GetTask returns one task with derived fields.
func (s *Service) GetTask(ctx context.Context, taskID, teamID uuid.UUID) (*transport.TaskResponse, error) {
	task, err := s.tasks.GetTask(ctx, taskID, teamID)
	if err != nil {
		return nil, err
	}

	resp := transport.TaskToResponse(*task, time.Now().UTC())
	return &resp, nil
}

// RecordAttempt appends a confirmation attempt. A task that already reached
// its required count rejects the attempt with a conflict.
func (s *Service) RecordAttempt(ctx context.Context, taskID, teamID uuid.UUID, req transport.RecordAttemptRequest) (*transport.TaskResponse, error) {
	current, err := s.tasks.GetTask(ctx, taskID, teamID)
	if err != nil {
		return nil, err
	}

	attempt := domain.Attempt{
		Timestamp:   time.Now().UTC(),
		ConfirmedBy: req.ConfirmedBy,
		Notes:       req.Notes,
		Sequence:    current.Sequence,
	}

	updated, err := s.tasks.AppendAttempt(ctx, taskID, teamID, attempt)
	if err != nil {
		return nil, err
	}

	resp := transport.TaskToResponse(*updated, time.Now().UTC())
	return &resp, nil
}
