package transport

import (
	"time"

	"salesops_backend/internal/confirmation/domain"

	"github.com/google/uuid"
)

// StepConfigDTO is the wire form of one confirmation configuration entry.
// Sequence is optional on input; entries are renumbered by list position.
type StepConfigDTO struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	Sequence     int        `json:"sequence"`
	HoursBefore  float64    `json:"hoursBefore" validate:"gte=0"`
	Label        string     `json:"label" validate:"required,min=1,max=200"`
	AssignedRole string     `json:"assignedRole" validate:"required,oneof=setter closer off"`
	Enabled      bool       `json:"enabled"`
}

// ReplaceConfigRequest replaces the team's whole confirmation step list.
type ReplaceConfigRequest struct {
	Steps []StepConfigDTO `json:"steps" validate:"dive"`
}

// RecordAttemptRequest is the request body for recording a confirmation attempt.
type RecordAttemptRequest struct {
	ConfirmedBy string `json:"confirmedBy" validate:"required,min=1,max=200"`
	Notes       string `json:"notes,omitempty" validate:"max=2000"`
}

// AttemptResponse is one recorded confirmation attempt.
type AttemptResponse struct {
	Timestamp   time.Time `json:"timestamp"`
	ConfirmedBy string    `json:"confirmedBy"`
	Notes       string    `json:"notes,omitempty"`
	Sequence    int       `json:"sequence"`
}

// TaskResponse is the wire form of a confirmation task. IsOverdue and
// Urgency are derived from the serving clock, never read from storage.
type TaskResponse struct {
	ID                     uuid.UUID         `json:"id"`
	AppointmentID          uuid.UUID         `json:"appointmentId"`
	Sequence               int               `json:"sequence"`
	Label                  string            `json:"label"`
	AssignedRole           string            `json:"assignedRole"`
	DueAtUtc               time.Time         `json:"dueAtUtc"`
	CompletedConfirmations int               `json:"completedConfirmations"`
	RequiredConfirmations  int               `json:"requiredConfirmations"`
	IsOverdue              bool              `json:"isOverdue"`
	IsDone                 bool              `json:"isDone"`
	Urgency                string            `json:"urgency"`
	Urgent                 bool              `json:"urgent"`
	Attempts               []AttemptResponse `json:"confirmationAttempts"`
}

// ConfigToDTO maps configuration entries to their wire form.
func ConfigToDTO(config []domain.StepConfig) []StepConfigDTO {
	out := make([]StepConfigDTO, 0, len(config))
	for _, entry := range config {
		id := entry.ID
		out = append(out, StepConfigDTO{
			ID:           &id,
			Sequence:     entry.Sequence,
			HoursBefore:  entry.HoursBefore,
			Label:        entry.Label,
			AssignedRole: string(entry.AssignedRole),
			Enabled:      entry.Enabled,
		})
	}
	return out
}

// TaskToResponse maps a task to its wire form at the given clock reading.
func TaskToResponse(task domain.Task, now time.Time) TaskResponse {
	attempts := make([]AttemptResponse, 0, len(task.Attempts))
	for _, a := range task.Attempts {
		attempts = append(attempts, AttemptResponse{
			Timestamp:   a.Timestamp,
			ConfirmedBy: a.ConfirmedBy,
			Notes:       a.Notes,
			Sequence:    a.Sequence,
		})
	}

	urgency := domain.UrgencyFor(task, now)
	return TaskResponse{
		ID:                     task.ID,
		AppointmentID:          task.AppointmentID,
		Sequence:               task.Sequence,
		Label:                  task.Label,
		AssignedRole:           string(task.AssignedRole),
		DueAtUtc:               task.DueAt,
		CompletedConfirmations: task.CompletedConfirmations,
		RequiredConfirmations:  task.RequiredConfirmations,
		IsOverdue:              task.IsOverdue(now),
		IsDone:                 task.IsDone(),
		Urgency:                string(urgency),
		Urgent:                 urgency.IsUrgent(),
		Attempts:               attempts,
	}
}
