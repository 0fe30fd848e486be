// Package domain defines the confirmation model: per-team step configuration,
// appointment-anchored tasks, and the pure due-time and lifecycle math.
package domain

import (
	"sort"
	"time"

	"salesops_backend/platform/apperr"

	"github.com/google/uuid"
)

// Role is the team member role a confirmation step is assigned to.
type Role string

const (
	RoleSetter Role = "setter"
	RoleCloser Role = "closer"
	RoleOff    Role = "off"
)

// IsKnownRole reports whether the role is supported.
func IsKnownRole(role Role) bool {
	return role == RoleSetter || role == RoleCloser || role == RoleOff
}

// StepConfig is one entry of a team's ordered confirmation configuration.
// Sequence values are contiguous starting at 1; Renumber restores the
// invariant after the list is edited.
type StepConfig struct {
	ID           uuid.UUID `json:"id"`
	TeamID       uuid.UUID `json:"teamId"`
	Sequence     int       `json:"sequence"`
	HoursBefore  float64   `json:"hoursBefore"`
	Label        string    `json:"label"`
	AssignedRole Role      `json:"assignedRole"`
	Enabled      bool      `json:"enabled"`
}

// Generates reports whether tasks are derived from this entry. Disabled or
// role-off entries stay in configuration but produce no tasks.
func (c StepConfig) Generates() bool {
	return c.Enabled && c.AssignedRole != RoleOff
}

// Attempt is one recorded confirmation contact. Attempts are append-only.
type Attempt struct {
	Timestamp   time.Time `json:"timestamp"`
	ConfirmedBy string    `json:"confirmedBy"`
	Notes       string    `json:"notes,omitempty"`
	Sequence    int       `json:"sequence"`
}

// Task is one confirmation check-in derived from a config entry for a
// specific appointment. RequiredConfirmations is frozen at generation time;
// later config edits do not change already-generated tasks.
type Task struct {
	ID                     uuid.UUID `json:"id"`
	AppointmentID          uuid.UUID `json:"appointmentId"`
	TeamID                 uuid.UUID `json:"teamId"`
	Sequence               int       `json:"sequence"`
	Label                  string    `json:"label"`
	AssignedRole           Role      `json:"assignedRole"`
	DueAt                  time.Time `json:"dueAtUtc"`
	CompletedConfirmations int       `json:"completedConfirmations"`
	RequiredConfirmations  int       `json:"requiredConfirmations"`
	Attempts               []Attempt `json:"confirmationAttempts"`
	CreatedAt              time.Time `json:"createdAt"`
}

// IsDone reports whether the task reached its terminal state.
func (t Task) IsDone() bool {
	return t.CompletedConfirmations >= t.RequiredConfirmations
}

// IsOverdue is derived on read, never persisted: true when the due time has
// passed and the task is not done.
func (t Task) IsOverdue(now time.Time) bool {
	return !t.IsDone() && now.After(t.DueAt)
}

// GenerateTasks derives the confirmation tasks for an appointment from the
// team's configuration. Only enabled, role-assigned entries generate a task;
// each due time is the appointment start minus the entry's lead time, in UTC.
// Output follows configuration sequence order.
func GenerateTasks(appointmentID, teamID uuid.UUID, startAt time.Time, config []StepConfig, now time.Time) []Task {
	active := make([]StepConfig, 0, len(config))
	for _, entry := range config {
		if entry.Generates() {
			active = append(active, entry)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Sequence < active[j].Sequence })

	required := len(active)
	tasks := make([]Task, 0, required)
	for _, entry := range active {
		due := startAt.UTC().Add(-time.Duration(entry.HoursBefore * float64(time.Hour)))
		tasks = append(tasks, Task{
			ID:                    uuid.New(),
			AppointmentID:         appointmentID,
			TeamID:                teamID,
			Sequence:              entry.Sequence,
			Label:                 entry.Label,
			AssignedRole:          entry.AssignedRole,
			DueAt:                 due,
			RequiredConfirmations: required,
			Attempts:              []Attempt{},
			CreatedAt:             now.UTC(),
		})
	}

	return tasks
}

// RecordAttempt appends an attempt and increments the completed count. A task
// that already reached its required count is terminal: further attempts are
// rejected with a conflict, never silently dropped.
func RecordAttempt(task Task, attempt Attempt) (Task, error) {
	if task.IsDone() {
		return task, apperr.Conflict("confirmation task is already done")
	}

	task.Attempts = append(task.Attempts, attempt)
	task.CompletedConfirmations++
	return task, nil
}

// TimelineOrder sorts tasks for display: descending distance from the
// appointment start, so the confirmation nearest the appointment shows last.
// Stored sequence order is left untouched.
func TimelineOrder(tasks []Task) []Task {
	ordered := make([]Task, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].DueAt.Before(ordered[j].DueAt) })
	return ordered
}

// Urgency is a presentation-only escalation bucket, computed from the due
// time and the current clock, never persisted.
type Urgency string

const (
	UrgencyOverdue   Urgency = "overdue"
	UrgencyUnder10m  Urgency = "due_10m"
	UrgencyUnder1h   Urgency = "due_1h"
	UrgencyUnder24h  Urgency = "due_24h"
	UrgencyScheduled Urgency = "scheduled"
)

// IsUrgent reports whether the bucket is flagged for UI escalation.
func (u Urgency) IsUrgent() bool {
	return u != UrgencyScheduled
}

// UrgencyFor buckets a task by how far its due time is from now. Done tasks
// are never escalated.
func UrgencyFor(task Task, now time.Time) Urgency {
	if task.IsDone() {
		return UrgencyScheduled
	}

	untilDue := task.DueAt.Sub(now)
	switch {
	case untilDue < 0:
		return UrgencyOverdue
	case untilDue < 10*time.Minute:
		return UrgencyUnder10m
	case untilDue < time.Hour:
		return UrgencyUnder1h
	case untilDue < 24*time.Hour:
		return UrgencyUnder24h
	default:
		return UrgencyScheduled
	}
}

// Renumber restores the contiguous 1..n sequence invariant after entries are
// added, removed, or reordered. Relative order is preserved.
func Renumber(config []StepConfig) []StepConfig {
	renumbered := make([]StepConfig, len(config))
	copy(renumbered, config)
	sort.SliceStable(renumbered, func(i, j int) bool { return renumbered[i].Sequence < renumbered[j].Sequence })
	for i := range renumbered {
		renumbered[i].Sequence = i + 1
	}
	return renumbered
}
