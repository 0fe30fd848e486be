// Package automation provides the event-triggered automation module: rule
// management over HTTP plus a bus subscriber that turns domain events into
// rule dispatches.
package automation

import (
	"context"
	"time"

	"salesops_backend/internal/automation/domain"
	"salesops_backend/internal/automation/engine"
	"salesops_backend/internal/automation/handler"
	"salesops_backend/internal/automation/repository"
	"salesops_backend/internal/automation/service"
	"salesops_backend/internal/events"
	apphttp "salesops_backend/internal/http"
	"salesops_backend/internal/messaging"
	"salesops_backend/internal/scheduler"
	"salesops_backend/internal/tasks"
	"salesops_backend/platform/config"
	"salesops_backend/platform/logger"
	"salesops_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the automation domain module
type Module struct {
	handler    *handler.Handler
	dispatcher *engine.Dispatcher
	Service    *service.Service
	log        *logger.Logger
}

// NewModule creates a new automation module with all dependencies wired.
// The delay scheduler may be nil when Redis is not configured.
func NewModule(pool *pgxpool.Pool, registry *messaging.Registry, webhookCfg config.WebhookConfig, delays scheduler.TriggerDelayScheduler, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	stepLogs := repository.NewStepLogs(pool)
	taskStore := tasks.New(pool)

	executor := engine.NewExecutor(registry, taskStore, engine.NewWebhookClient(webhookCfg), log)
	dispatcher := engine.NewDispatcher(repo, executor, &stepLogRecorder{repo: stepLogs, log: log}, log)
	svc := service.New(repo, stepLogs, dispatcher, delays)
	h := handler.New(svc, val)

	return &Module{
		handler:    h,
		dispatcher: dispatcher,
		Service:    svc,
		log:        log,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "automation"
}

// Dispatcher exposes the rule dispatcher for callers outside the bus, such as
// the scheduler worker firing delayed triggers.
func (m *Module) Dispatcher() *engine.Dispatcher {
	return m.dispatcher
}

// RegisterRoutes registers the module's routes under /api/v1/automation
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	automation := ctx.Protected.Group("/automation")
	m.handler.RegisterRoutes(automation)
}

// RegisterHandlers subscribes the module to the domain events that can
// activate rules.
func (m *Module) RegisterHandlers(bus events.Bus) {
	h := events.HandlerFunc(m.Handle)

	bus.Subscribe(events.LeadCreated{}.EventName(), h)
	bus.Subscribe(events.AppointmentBooked{}.EventName(), h)
	bus.Subscribe(events.AppointmentRescheduled{}.EventName(), h)
	bus.Subscribe(events.AppointmentNoShow{}.EventName(), h)
	bus.Subscribe(events.AppointmentCompleted{}.EventName(), h)
	bus.Subscribe(events.PaymentReceived{}.EventName(), h)
	bus.Subscribe(events.ConfirmationDue{}.EventName(), h)
	bus.Subscribe(events.ConfirmationOverdue{}.EventName(), h)
}

// Handle converts a domain event into a trigger dispatch. Unknown events are
// ignored; dispatch itself never returns an error.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	teamID, trigger, payload := eventToDispatch(event)
	if trigger == "" {
		m.log.Warn("automation received unmapped event", "event", event.EventName())
		return nil
	}

	m.dispatcher.Dispatch(ctx, teamID, trigger, payload)
	return nil
}

func eventToDispatch(event events.Event) (uuid.UUID, domain.TriggerType, map[string]any) {
	switch e := event.(type) {
	case events.LeadCreated:
		return e.TeamID, domain.TriggerLeadCreated, map[string]any{
			"leadId":    e.LeadID.String(),
			"name":      e.Name,
			"email":     e.Email,
			"phone":     e.Phone,
			"source":    e.Source,
			"status":    e.Status,
			"funnelTag": e.FunnelTag,
		}
	case events.AppointmentBooked:
		return e.TeamID, domain.TriggerAppointmentBooked, map[string]any{
			"appointmentId": e.AppointmentID.String(),
			"leadId":        uuidOrEmpty(e.LeadID),
			"title":         e.Title,
			"startAt":       e.StartAt.UTC().Format(time.RFC3339),
			"endAt":         e.EndAt.UTC().Format(time.RFC3339),
			"setterId":      uuidOrEmpty(e.SetterID),
			"closerId":      uuidOrEmpty(e.CloserID),
			"location":      e.Location,
		}
	case events.AppointmentRescheduled:
		return e.TeamID, domain.TriggerAppointmentRescheduled, map[string]any{
			"appointmentId": e.AppointmentID.String(),
			"leadId":        uuidOrEmpty(e.LeadID),
			"oldStartAt":    e.OldStartAt.UTC().Format(time.RFC3339),
			"startAt":       e.StartAt.UTC().Format(time.RFC3339),
			"endAt":         e.EndAt.UTC().Format(time.RFC3339),
		}
	case events.AppointmentNoShow:
		return e.TeamID, domain.TriggerAppointmentNoShow, map[string]any{
			"appointmentId": e.AppointmentID.String(),
			"leadId":        uuidOrEmpty(e.LeadID),
			"startAt":       e.StartAt.UTC().Format(time.RFC3339),
			"status":        "no_show",
		}
	case events.AppointmentCompleted:
		return e.TeamID, domain.TriggerAppointmentCompleted, map[string]any{
			"appointmentId": e.AppointmentID.String(),
			"leadId":        uuidOrEmpty(e.LeadID),
			"outcome":       e.Outcome,
			"status":        "completed",
		}
	case events.PaymentReceived:
		return e.TeamID, domain.TriggerPaymentReceived, map[string]any{
			"paymentId":   e.PaymentID.String(),
			"leadId":      uuidOrEmpty(e.LeadID),
			"amountCents": float64(e.AmountCents),
			"product":     e.Product,
		}
	case events.ConfirmationDue:
		return e.TeamID, domain.TriggerConfirmationDue, confirmationPayload(e.TaskID, e.AppointmentID, e.Sequence, e.AssignedRole, e.DueAt.UTC().Format(time.RFC3339))
	case events.ConfirmationOverdue:
		return e.TeamID, domain.TriggerConfirmationOverdue, confirmationPayload(e.TaskID, e.AppointmentID, e.Sequence, e.AssignedRole, e.DueAt.UTC().Format(time.RFC3339))
	default:
		return uuid.Nil, "", nil
	}
}

func confirmationPayload(taskID, appointmentID uuid.UUID, sequence int, role, dueAt string) map[string]any {
	return map[string]any{
		"taskId":        taskID.String(),
		"appointmentId": appointmentID.String(),
		"sequence":      float64(sequence),
		"assignedRole":  role,
		"dueAt":         dueAt,
	}
}

func uuidOrEmpty(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// stepLogRecorder adapts the step log repository to the engine's recorder
// interface. Persistence failures are logged, never surfaced to dispatch.
type stepLogRecorder struct {
	repo *repository.StepLogRepository
	log  *logger.Logger
}

func (r *stepLogRecorder) RecordStepLogs(ctx context.Context, teamID, ruleID uuid.UUID, trigger domain.TriggerType, logs []domain.StepExecutionLog) {
	if err := r.repo.InsertBatch(ctx, teamID, ruleID, trigger, logs); err != nil {
		r.log.DatabaseError("automation.steplogs.insert", err)
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
