package engine

import (
	"context"
	"fmt"

	"salesops_backend/internal/automation/domain"
	"salesops_backend/internal/messaging"
	"salesops_backend/platform/logger"
	"salesops_backend/platform/phone"

	"github.com/google/uuid"
)

// MessageSender resolves and calls the messaging providers for a channel.
type MessageSender interface {
	Send(ctx context.Context, msg messaging.OutboundMessage) (messaging.MessageResult, error)
}

// TaskStore is the external CRUD collaborator for tasks, tags, team
// notifications, and the dialer queue.
type TaskStore interface {
	CreateTask(ctx context.Context, teamID uuid.UUID, title, description, relatedRecord string) error
	AddTag(ctx context.Context, teamID uuid.UUID, recordID, tag string) error
	NotifyTeam(ctx context.Context, teamID uuid.UUID, message string) error
	EnqueueDial(ctx context.Context, teamID uuid.UUID, phoneNumber, recordID string) error
}

// WebhookPoster posts an event payload to an external URL.
type WebhookPoster interface {
	Post(ctx context.Context, url string, payload map[string]any) error
}

// Executor performs one action step per call. It never returns an error and
// never retries: every failure inside action logic is reported on the
// StepExecutionLog as a skip so a bad step cannot abort the rest of a rule.
type Executor struct {
	sender  MessageSender
	store   TaskStore
	webhook WebhookPoster
	log     *logger.Logger
}

// NewExecutor creates an action executor with its external collaborators.
func NewExecutor(sender MessageSender, store TaskStore, webhook WebhookPoster, log *logger.Logger) *Executor {
	return &Executor{
		sender:  sender,
		store:   store,
		webhook: webhook,
		log:     log,
	}
}

// ExecuteStep runs a single step against the event payload and reports the
// outcome. Each invocation is independent; idempotence of the underlying
// side effect is the collaborator's responsibility.
func (e *Executor) ExecuteStep(ctx context.Context, teamID uuid.UUID, step domain.ActionStep, payload map[string]any) (out domain.StepExecutionLog) {
	out = domain.StepExecutionLog{StepID: step.ID, ActionType: step.Type}

	defer func() {
		if r := recover(); r != nil {
			out.Skipped = true
			out.SkipReason = fmt.Sprintf("action panicked: %v", r)
			if e.log != nil {
				e.log.Error("action step panicked", "step_id", step.ID, "action", string(step.Type), "panic", r)
			}
		}
	}()

	switch step.Type {
	case domain.ActionSendMessage:
		e.executeSendMessage(ctx, teamID, step, &out)
	case domain.ActionAddTask:
		e.executeAddTask(ctx, teamID, step, &out)
	case domain.ActionAddTag:
		e.executeAddTag(ctx, teamID, step, &out)
	case domain.ActionNotifyTeam:
		e.executeNotifyTeam(ctx, teamID, step, &out)
	case domain.ActionEnqueueDialer:
		e.executeEnqueueDialer(ctx, teamID, step, &out)
	case domain.ActionCustomWebhook:
		e.executeCustomWebhook(ctx, step, payload, &out)
	default:
		out.Skipped = true
		out.SkipReason = fmt.Sprintf("unknown action type %q", step.Type)
	}

	return out
}

func (e *Executor) executeSendMessage(ctx context.Context, teamID uuid.UUID, step domain.ActionStep, out *domain.StepExecutionLog) {
	channel, ok := configString(step.Config, "channel")
	if !ok {
		skip(out, "send_message config missing channel")
		return
	}
	out.Channel = channel

	if !messaging.IsKnownChannel(messaging.Channel(channel)) {
		skip(out, fmt.Sprintf("unknown channel %q", channel))
		return
	}

	text, ok := configString(step.Config, "text")
	if !ok {
		skip(out, "send_message config missing text")
		return
	}

	recipient, _ := configString(step.Config, "recipient")
	subject, _ := configString(step.Config, "subject")

	result, err := e.sender.Send(ctx, messaging.OutboundMessage{
		TeamID:    teamID,
		Channel:   messaging.Channel(channel),
		Recipient: recipient,
		Subject:   subject,
		Body:      text,
	})
	if err != nil {
		skip(out, fmt.Sprintf("message delivery failed: %v", err))
		return
	}
	out.ProviderID = result.ProviderID
}

func (e *Executor) executeAddTask(ctx context.Context, teamID uuid.UUID, step domain.ActionStep, out *domain.StepExecutionLog) {
	title, ok := configString(step.Config, "title")
	if !ok {
		skip(out, "add_task config missing title")
		return
	}
	description, _ := configString(step.Config, "description")
	relatedRecord, _ := configString(step.Config, "record_id")

	if err := e.store.CreateTask(ctx, teamID, title, description, relatedRecord); err != nil {
		skip(out, fmt.Sprintf("task store failed: %v", err))
	}
}

func (e *Executor) executeAddTag(ctx context.Context, teamID uuid.UUID, step domain.ActionStep, out *domain.StepExecutionLog) {
	recordID, ok := configString(step.Config, "record_id")
	if !ok {
		skip(out, "add_tag config missing record_id")
		return
	}
	tag, ok := configString(step.Config, "tag")
	if !ok {
		skip(out, "add_tag config missing tag")
		return
	}

	if err := e.store.AddTag(ctx, teamID, recordID, tag); err != nil {
		skip(out, fmt.Sprintf("tag store failed: %v", err))
	}
}

func (e *Executor) executeNotifyTeam(ctx context.Context, teamID uuid.UUID, step domain.ActionStep, out *domain.StepExecutionLog) {
	message, ok := configString(step.Config, "message")
	if !ok {
		skip(out, "notify_team config missing message")
		return
	}

	if err := e.store.NotifyTeam(ctx, teamID, message); err != nil {
		skip(out, fmt.Sprintf("notification store failed: %v", err))
	}
}

func (e *Executor) executeEnqueueDialer(ctx context.Context, teamID uuid.UUID, step domain.ActionStep, out *domain.StepExecutionLog) {
	phoneNumber, ok := configString(step.Config, "phone")
	if !ok {
		skip(out, "enqueue_dialer config missing phone")
		return
	}
	if !phone.IsValid(phoneNumber) {
		skip(out, fmt.Sprintf("enqueue_dialer phone %q is not a dialable number", phoneNumber))
		return
	}
	recordID, _ := configString(step.Config, "record_id")

	if err := e.store.EnqueueDial(ctx, teamID, phone.NormalizeE164(phoneNumber), recordID); err != nil {
		skip(out, fmt.Sprintf("dialer queue failed: %v", err))
	}
}

func (e *Executor) executeCustomWebhook(ctx context.Context, step domain.ActionStep, payload map[string]any, out *domain.StepExecutionLog) {
	url, ok := configString(step.Config, "url")
	if !ok {
		skip(out, "custom_webhook config missing url")
		return
	}

	if err := e.webhook.Post(ctx, url, payload); err != nil {
		skip(out, fmt.Sprintf("webhook failed: %v", err))
	}
}

func skip(out *domain.StepExecutionLog, reason string) {
	out.Skipped = true
	out.SkipReason = reason
}

func configString(config map[string]any, key string) (string, bool) {
	value, ok := config[key]
	if !ok {
		return "", false
	}
	str, ok := value.(string)
	if !ok || str == "" {
		return "", false
	}
	return str, true
}
