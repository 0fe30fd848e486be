package service

import (
	"context"
	"time"

	"salesops_backend/internal/appointments/repository"
	"salesops_backend/internal/appointments/transport"
	confirmationdomain "salesops_backend/internal/confirmation/domain"
	"salesops_backend/internal/events"
	"salesops_backend/platform/logger"

	"github.com/google/uuid"
)

// ConfirmationGenerator derives the confirmation task set for an appointment.
// Booking and rescheduling both regenerate through this interface.
type ConfirmationGenerator interface {
	GenerateForAppointment(ctx context.Context, teamID, appointmentID uuid.UUID, startAt time.Time) ([]confirmationdomain.Task, error)
}

// Service implements appointment booking and lifecycle transitions. Every
// transition publishes a domain event; automation failures never propagate
// back into the booking flow.
type Service struct {
	repo          *repository.Repository
	bus           events.Bus
	confirmations ConfirmationGenerator
	log           *logger.Logger
}

// New creates an appointments service. The confirmation generator may be nil
// when confirmation scheduling is disabled.
func New(repo *repository.Repository, bus events.Bus, confirmations ConfirmationGenerator, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, confirmations: confirmations, log: log}
}

// Book creates an appointment, generates its confirmation tasks, and
// publishes the booked event.
func (s *Service) Book(ctx context.Context, teamID uuid.UUID, req transport.BookAppointmentRequest) (*transport.AppointmentResponse, error) {
	now := time.Now().UTC()
	appt := &repository.Appointment{
		ID:        uuid.New(),
		TeamID:    teamID,
		LeadID:    req.LeadID,
		Title:     req.Title,
		Location:  nullIfEmpty(req.Location),
		StartAt:   req.StartAt.UTC(),
		EndAt:     req.EndAt.UTC(),
		Status:    string(transport.AppointmentStatusScheduled),
		SetterID:  req.SetterID,
		CloserID:  req.CloserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.generateConfirmations(ctx, appt)

	s.bus.Publish(ctx, events.AppointmentBooked{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: appt.ID,
		TeamID:        appt.TeamID,
		LeadID:        appt.LeadID,
		Title:         appt.Title,
		StartAt:       appt.StartAt,
		EndAt:         appt.EndAt,
		SetterID:      appt.SetterID,
		CloserID:      appt.CloserID,
		Location:      req.Location,
	})

	resp := toResponse(appt)
	return &resp, nil
}

// Reschedule moves an appointment and regenerates its confirmation tasks
// against the new start time.
func (s *Service) Reschedule(ctx context.Context, id, teamID uuid.UUID, req transport.RescheduleAppointmentRequest) (*transport.AppointmentResponse, error) {
	appt, err := s.repo.GetByID(ctx, id, teamID)
	if err != nil {
		return nil, err
	}

	oldStartAt := appt.StartAt
	appt.StartAt = req.StartAt.UTC()
	appt.EndAt = req.EndAt.UTC()
	appt.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateTimes(ctx, id, teamID, appt.StartAt, appt.EndAt, appt.UpdatedAt); err != nil {
		return nil, err
	}

	s.generateConfirmations(ctx, appt)

	s.bus.Publish(ctx, events.AppointmentRescheduled{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: appt.ID,
		TeamID:        appt.TeamID,
		LeadID:        appt.LeadID,
		OldStartAt:    oldStartAt,
		StartAt:       appt.StartAt,
		EndAt:         appt.EndAt,
	})

	resp := toResponse(appt)
	return &resp, nil
}

// UpdateStatus transitions the appointment and publishes the matching event.
func (s *Service) UpdateStatus(ctx context.Context, id, teamID uuid.UUID, req transport.UpdateAppointmentStatusRequest) (*transport.AppointmentResponse, error) {
	appt, err := s.repo.GetByID(ctx, id, teamID)
	if err != nil {
		return nil, err
	}

	appt.Status = string(req.Status)
	appt.Outcome = nullIfEmpty(req.Outcome)
	appt.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateStatus(ctx, id, teamID, appt.Status, appt.Outcome, appt.UpdatedAt); err != nil {
		return nil, err
	}

	switch req.Status {
	case transport.AppointmentStatusNoShow:
		s.bus.Publish(ctx, events.AppointmentNoShow{
			BaseEvent:     events.NewBaseEvent(),
			AppointmentID: appt.ID,
			TeamID:        appt.TeamID,
			LeadID:        appt.LeadID,
			StartAt:       appt.StartAt,
		})
	case transport.AppointmentStatusCompleted:
		s.bus.Publish(ctx, events.AppointmentCompleted{
			BaseEvent:     events.NewBaseEvent(),
			AppointmentID: appt.ID,
			TeamID:        appt.TeamID,
			LeadID:        appt.LeadID,
			Outcome:       req.Outcome,
		})
	}

	resp := toResponse(appt)
	return &resp, nil
}

// GetByID returns one appointment.
func (s *Service) GetByID(ctx context.Context, id, teamID uuid.UUID) (*transport.AppointmentResponse, error) {
	appt, err := s.repo.GetByID(ctx, id, teamID)
	if err != nil {
		return nil, err
	}

	resp := toResponse(appt)
	return &resp, nil
}

// List returns the team's appointments within the requested window.
func (s *Service) List(ctx context.Context, teamID uuid.UUID, req transport.ListAppointmentsRequest) ([]transport.AppointmentResponse, error) {
	appointments, err := s.repo.List(ctx, teamID, req.StartFrom, req.StartTo)
	if err != nil {
		return nil, err
	}

	out := make([]transport.AppointmentResponse, 0, len(appointments))
	for i := range appointments {
		out = append(out, toResponse(&appointments[i]))
	}
	return out, nil
}

// generateConfirmations derives the task set for the appointment. A failure
// is logged but does not fail the booking: confirmation scheduling must not
// break the core flow.
func (s *Service) generateConfirmations(ctx context.Context, appt *repository.Appointment) {
	if s.confirmations == nil {
		return
	}

	if _, err := s.confirmations.GenerateForAppointment(ctx, appt.TeamID, appt.ID, appt.StartAt); err != nil {
		s.log.Error("failed to generate confirmation tasks",
			"appointment_id", appt.ID.String(),
			"team_id", appt.TeamID.String(),
			"error", err,
		)
	}
}

func toResponse(appt *repository.Appointment) transport.AppointmentResponse {
	return transport.AppointmentResponse{
		ID:        appt.ID,
		LeadID:    appt.LeadID,
		Title:     appt.Title,
		Location:  appt.Location,
		StartAt:   appt.StartAt,
		EndAt:     appt.EndAt,
		Status:    transport.AppointmentStatus(appt.Status),
		SetterID:  appt.SetterID,
		CloserID:  appt.CloserID,
		Outcome:   appt.Outcome,
		CreatedAt: appt.CreatedAt,
		UpdatedAt: appt.UpdatedAt,
	}
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
