package scheduler

import (
	"context"
	"fmt"
	"time"

	automationdomain "salesops_backend/internal/automation/domain"
	confirmationdomain "salesops_backend/internal/confirmation/domain"
	"salesops_backend/internal/confirmation/repository"
	"salesops_backend/internal/events"
	"salesops_backend/platform/config"
	"salesops_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TriggerDispatcher runs the automation engine for a delayed trigger.
type TriggerDispatcher interface {
	Dispatch(ctx context.Context, teamID uuid.UUID, trigger automationdomain.TriggerType, payload map[string]any)
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	repo       *repository.Repository
	bus        events.Bus
	dispatcher TriggerDispatcher
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   repository.New(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskConfirmationDue, w.handleConfirmationDue)
	mux.HandleFunc(TaskConfirmationOverdue, w.handleConfirmationOverdue)
	mux.HandleFunc(TaskDelayedTrigger, w.handleDelayedTrigger)

	return w, nil
}

// SetTriggerDispatcher wires the automation engine for delayed dispatches.
func (w *Worker) SetTriggerDispatcher(dispatcher TriggerDispatcher) {
	w.dispatcher = dispatcher
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleConfirmationDue re-reads the task at its due time; a task completed
// in the meantime publishes nothing.
func (w *Worker) handleConfirmationDue(ctx context.Context, task *asynq.Task) error {
	record, err := w.loadCheckTarget(ctx, task)
	if err != nil || record == nil {
		return err
	}

	if w.bus == nil {
		return nil
	}

	return w.bus.PublishSync(ctx, events.ConfirmationDue{
		BaseEvent:     events.NewBaseEvent(),
		TaskID:        record.ID,
		AppointmentID: record.AppointmentID,
		TeamID:        record.TeamID,
		Sequence:      record.Sequence,
		DueAt:         record.DueAt,
		AssignedRole:  string(record.AssignedRole),
	})
}

// handleConfirmationOverdue fires after the grace period; it only publishes
// when the task is genuinely past due and still open.
func (w *Worker) handleConfirmationOverdue(ctx context.Context, task *asynq.Task) error {
	record, err := w.loadCheckTarget(ctx, task)
	if err != nil || record == nil {
		return err
	}

	if !record.IsOverdue(time.Now().UTC()) {
		return nil
	}

	if w.bus == nil {
		return nil
	}

	return w.bus.PublishSync(ctx, events.ConfirmationOverdue{
		BaseEvent:     events.NewBaseEvent(),
		TaskID:        record.ID,
		AppointmentID: record.AppointmentID,
		TeamID:        record.TeamID,
		Sequence:      record.Sequence,
		DueAt:         record.DueAt,
		AssignedRole:  string(record.AssignedRole),
	})
}

func (w *Worker) handleDelayedTrigger(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDelayedTriggerPayload(task)
	if err != nil {
		return err
	}

	teamID, err := uuid.Parse(payload.TeamID)
	if err != nil {
		return err
	}

	if w.dispatcher == nil {
		w.log.Warn("delayed trigger dropped, no dispatcher wired", "trigger", payload.Trigger)
		return nil
	}

	w.dispatcher.Dispatch(ctx, teamID, automationdomain.TriggerType(payload.Trigger), payload.EventPayload)
	return nil
}

// loadCheckTarget resolves the confirmation task behind a check payload.
// A deleted or already-done task yields nil with no error so asynq does not
// retry a check that has nothing left to do.
func (w *Worker) loadCheckTarget(ctx context.Context, task *asynq.Task) (*confirmationdomain.Task, error) {
	payload, err := ParseConfirmationCheckPayload(task)
	if err != nil {
		return nil, err
	}

	taskID, err := uuid.Parse(payload.TaskID)
	if err != nil {
		return nil, err
	}
	teamID, err := uuid.Parse(payload.TeamID)
	if err != nil {
		return nil, err
	}

	record, err := w.repo.GetTask(ctx, taskID, teamID)
	if err != nil {
		w.log.Warn("confirmation check target unavailable", "task_id", payload.TaskID, "error", err)
		return nil, nil
	}

	if record.IsDone() {
		return nil, nil
	}

	return record, nil
}
