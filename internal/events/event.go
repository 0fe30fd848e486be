// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"salesops_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead enters the system.
type LeadCreated struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	TeamID    uuid.UUID `json:"teamId"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Source    string    `json:"source,omitempty"`
	Status    string    `json:"status"`
	FunnelTag string    `json:"funnelTag,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// =============================================================================
// Appointments Domain Events
// =============================================================================

// AppointmentBooked is published when an appointment is scheduled.
type AppointmentBooked struct {
	BaseEvent
	AppointmentID uuid.UUID  `json:"appointmentId"`
	TeamID        uuid.UUID  `json:"teamId"`
	LeadID        *uuid.UUID `json:"leadId,omitempty"`
	Title         string     `json:"title"`
	StartAt       time.Time  `json:"startAt"`
	EndAt         time.Time  `json:"endAt"`
	SetterID      *uuid.UUID `json:"setterId,omitempty"`
	CloserID      *uuid.UUID `json:"closerId,omitempty"`
	Location      string     `json:"location,omitempty"`
}

func (e AppointmentBooked) EventName() string { return "appointments.booked" }

// AppointmentRescheduled is published when an appointment's start time moves.
type AppointmentRescheduled struct {
	BaseEvent
	AppointmentID uuid.UUID  `json:"appointmentId"`
	TeamID        uuid.UUID  `json:"teamId"`
	LeadID        *uuid.UUID `json:"leadId,omitempty"`
	OldStartAt    time.Time  `json:"oldStartAt"`
	StartAt       time.Time  `json:"startAt"`
	EndAt         time.Time  `json:"endAt"`
}

func (e AppointmentRescheduled) EventName() string { return "appointments.rescheduled" }

// AppointmentNoShow is published when an appointment is marked as a no-show.
type AppointmentNoShow struct {
	BaseEvent
	AppointmentID uuid.UUID  `json:"appointmentId"`
	TeamID        uuid.UUID  `json:"teamId"`
	LeadID        *uuid.UUID `json:"leadId,omitempty"`
	StartAt       time.Time  `json:"startAt"`
}

func (e AppointmentNoShow) EventName() string { return "appointments.no_show" }

// AppointmentCompleted is published when an appointment is marked completed.
type AppointmentCompleted struct {
	BaseEvent
	AppointmentID uuid.UUID  `json:"appointmentId"`
	TeamID        uuid.UUID  `json:"teamId"`
	LeadID        *uuid.UUID `json:"leadId,omitempty"`
	Outcome       string     `json:"outcome,omitempty"`
}

func (e AppointmentCompleted) EventName() string { return "appointments.completed" }

// =============================================================================
// Sales Domain Events
// =============================================================================

// PaymentReceived is published when a payment lands for a sale.
type PaymentReceived struct {
	BaseEvent
	PaymentID   uuid.UUID  `json:"paymentId"`
	TeamID      uuid.UUID  `json:"teamId"`
	LeadID      *uuid.UUID `json:"leadId,omitempty"`
	AmountCents int64      `json:"amountCents"`
	Product     string     `json:"product,omitempty"`
}

func (e PaymentReceived) EventName() string { return "sales.payment.received" }

// =============================================================================
// Confirmation Domain Events
// =============================================================================

// ConfirmationDue is published by the scheduler when a confirmation task
// reaches its due time without being completed.
type ConfirmationDue struct {
	BaseEvent
	TaskID        uuid.UUID `json:"taskId"`
	AppointmentID uuid.UUID `json:"appointmentId"`
	TeamID        uuid.UUID `json:"teamId"`
	Sequence      int       `json:"sequence"`
	DueAt         time.Time `json:"dueAt"`
	AssignedRole  string    `json:"assignedRole"`
}

func (e ConfirmationDue) EventName() string { return "confirmations.due" }

// ConfirmationOverdue is published by the scheduler when a confirmation task
// has passed its due time and is still incomplete.
type ConfirmationOverdue struct {
	BaseEvent
	TaskID        uuid.UUID `json:"taskId"`
	AppointmentID uuid.UUID `json:"appointmentId"`
	TeamID        uuid.UUID `json:"teamId"`
	Sequence      int       `json:"sequence"`
	DueAt         time.Time `json:"dueAt"`
	AssignedRole  string    `json:"assignedRole"`
}

func (e ConfirmationOverdue) EventName() string { return "confirmations.overdue" }
