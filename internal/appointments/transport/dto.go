package transport

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus defines the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// BookAppointmentRequest is the request body for booking an appointment
type BookAppointmentRequest struct {
	LeadID   *uuid.UUID `json:"leadId,omitempty"`
	Title    string     `json:"title" validate:"required,min=1,max=200"`
	Location string     `json:"location,omitempty" validate:"max=500"`
	StartAt  time.Time  `json:"startAt" validate:"required"`
	EndAt    time.Time  `json:"endAt" validate:"required,gtfield=StartAt"`
	SetterID *uuid.UUID `json:"setterId,omitempty"`
	CloserID *uuid.UUID `json:"closerId,omitempty"`
}

// RescheduleAppointmentRequest moves an appointment to a new time.
type RescheduleAppointmentRequest struct {
	StartAt time.Time `json:"startAt" validate:"required"`
	EndAt   time.Time `json:"endAt" validate:"required,gtfield=StartAt"`
}

// UpdateAppointmentStatusRequest is the request body for updating status
type UpdateAppointmentStatusRequest struct {
	Status  AppointmentStatus `json:"status" validate:"required,oneof=scheduled completed cancelled no_show"`
	Outcome string            `json:"outcome,omitempty" validate:"max=500"`
}

// ListAppointmentsRequest is the query parameters for listing appointments
type ListAppointmentsRequest struct {
	StartFrom *time.Time `form:"startFrom" time_format:"2006-01-02T15:04:05Z07:00"`
	StartTo   *time.Time `form:"startTo" time_format:"2006-01-02T15:04:05Z07:00"`
}

// AppointmentResponse is the response body for an appointment
type AppointmentResponse struct {
	ID        uuid.UUID         `json:"id"`
	LeadID    *uuid.UUID        `json:"leadId,omitempty"`
	Title     string            `json:"title"`
	Location  *string           `json:"location,omitempty"`
	StartAt   time.Time         `json:"startAt"`
	EndAt     time.Time         `json:"endAt"`
	Status    AppointmentStatus `json:"status"`
	SetterID  *uuid.UUID        `json:"setterId,omitempty"`
	CloserID  *uuid.UUID        `json:"closerId,omitempty"`
	Outcome   *string           `json:"outcome,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
