package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskConfirmationDue = "confirmations.due_check"

const TaskConfirmationOverdue = "confirmations.overdue_check"

const TaskDelayedTrigger = "automation.trigger.delayed"

type ConfirmationCheckPayload struct {
	TaskID string `json:"taskId"`
	TeamID string `json:"teamId"`
}

type DelayedTriggerPayload struct {
	TeamID       string         `json:"teamId"`
	Trigger      string         `json:"trigger"`
	EventPayload map[string]any `json:"eventPayload"`
}

func NewConfirmationDueTask(payload ConfirmationCheckPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConfirmationDue, data), nil
}

func NewConfirmationOverdueTask(payload ConfirmationCheckPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskConfirmationOverdue, data), nil
}

func ParseConfirmationCheckPayload(task *asynq.Task) (ConfirmationCheckPayload, error) {
	var payload ConfirmationCheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ConfirmationCheckPayload{}, err
	}
	return payload, nil
}

func NewDelayedTriggerTask(payload DelayedTriggerPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDelayedTrigger, data), nil
}

func ParseDelayedTriggerPayload(task *asynq.Task) (DelayedTriggerPayload, error) {
	var payload DelayedTriggerPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DelayedTriggerPayload{}, err
	}
	return payload, nil
}
