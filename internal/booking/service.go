package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	redisclient "github.com/careloop/clinic-booking/internal/redis"
)

const (
	EventSlotCreated          = "SLOT_CREATED"
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentApproved  = "APPOINTMENT_APPROVED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
)

var (
	ErrInvalidSlotWindow = errors.New("slot start time must precede end time")
	ErrMalformedSlot     = errors.New("malformed slot date or time")
	ErrSlotAlreadyBooked = errors.New("slot is already booked")
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
	ErrInvalidTransition = errors.New("invalid appointment status transition")
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var nowFunc = time.Now

// Service owns the slot and appointment collections and the transition
// rules between appointment statuses.
type Service struct {
	repo   Repository
	locker redisclient.Locker
	logger *zap.Logger
}

func NewService(repo Repository, locker redisclient.Locker, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		logger: logger,
	}
}

// AddSlot publishes a new availability window for a doctor. The slot comes
// back with a fresh id and IsBooked false.
func (s *Service) AddSlot(ctx context.Context, doctorID uuid.UUID, date, startTime, endTime string, isOnline bool) (*Slot, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrMalformedSlot, date)
	}
	start, err := time.Parse(timeLayout, startTime)
	if err != nil {
		return nil, fmt.Errorf("%w: start time %q", ErrMalformedSlot, startTime)
	}
	end, err := time.Parse(timeLayout, endTime)
	if err != nil {
		return nil, fmt.Errorf("%w: end time %q", ErrMalformedSlot, endTime)
	}
	if !start.Before(end) {
		return nil, ErrInvalidSlotWindow
	}

	slot := &Slot{
		ID:        uuid.New(),
		DoctorID:  doctorID,
		Date:      date,
		StartTime: startTime,
		EndTime:   endTime,
		IsOnline:  isOnline,
		IsBooked:  false,
		CreatedAt: nowFunc(),
	}

	if err := s.repo.CreateSlot(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.logEvent(ctx, nil, EventSlotCreated, map[string]any{
		"slot_id":   slot.ID.String(),
		"doctor_id": doctorID.String(),
		"date":      date,
	})

	return slot, nil
}

// BookSlot reserves a slot for a patient and creates the matching pending
// appointment. It runs under a per-slot lock so two concurrent requests
// cannot both see the slot unbooked.
func (s *Service) BookSlot(ctx context.Context, slotID, patientID uuid.UUID, isOnline bool) (*Appointment, error) {
	var created *Appointment

	err := s.locker.WithSlotLock(ctx, slotID, func(lockCtx context.Context) error {
		slot, err := s.repo.GetSlotByID(lockCtx, slotID)
		if err != nil {
			return err
		}
		if slot.IsBooked {
			return ErrSlotAlreadyBooked
		}

		if _, err := s.repo.SetSlotBooked(lockCtx, slotID, true); err != nil {
			return fmt.Errorf("mark slot booked: %w", err)
		}

		now := nowFunc()
		appt := &Appointment{
			ID:        uuid.New(),
			SlotID:    slot.ID,
			DoctorID:  slot.DoctorID,
			PatientID: patientID,
			Status:    StatusPending,
			IsOnline:  isOnline,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := s.repo.CreateAppointment(lockCtx, appt); err != nil {
			// Roll the flag back so a failed creation does not strand the slot.
			if _, rbErr := s.repo.SetSlotBooked(lockCtx, slotID, false); rbErr != nil {
				s.logger.Error("failed to unbook slot after create error",
					zap.String("slot_id", slotID.String()), zap.Error(rbErr))
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, &appt.ID, EventAppointmentCreated, map[string]any{
			"slot_id":    slotID.String(),
			"patient_id": patientID.String(),
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// ApproveAppointment moves a pending appointment to approved and records
// the meeting link as given. Requiring a link for online visits is the
// caller's job.
func (s *Service) ApproveAppointment(ctx context.Context, id uuid.UUID, meetLink string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(appt.Status, StatusApproved) {
		return nil, fmt.Errorf("%w: %s to approved", ErrInvalidTransition, appt.Status)
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusPending, StatusApproved, AppointmentUpdate{
		SetMeetLink: true,
		MeetLink:    meetLink,
	})
	if err != nil {
		return nil, fmt.Errorf("approve appointment: %w", err)
	}

	s.logEvent(ctx, &updated.ID, EventAppointmentApproved, map[string]any{
		"meet_link": meetLink,
	})

	return updated, nil
}

// CancelAppointment moves a pending or approved appointment to cancelled
// and returns its slot to the available pool. Cancelling an appointment
// that is already cancelled is a no-op.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if appt.Status == StatusCancelled {
		return appt, nil
	}

	if !CanTransition(appt.Status, StatusCancelled) {
		return nil, fmt.Errorf("%w: %s to cancelled", ErrInvalidTransition, appt.Status)
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, appt.Status, StatusCancelled, AppointmentUpdate{})
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	if _, err := s.repo.SetSlotBooked(ctx, updated.SlotID, false); err != nil && !errors.Is(err, ErrSlotNotFound) {
		return nil, fmt.Errorf("release slot: %w", err)
	}

	s.logEvent(ctx, &updated.ID, EventAppointmentCancelled, map[string]any{
		"slot_id": updated.SlotID.String(),
	})

	return updated, nil
}

// CompleteAppointment moves an approved appointment to completed. Empty
// notes leave any previously stored notes untouched.
func (s *Service) CompleteAppointment(ctx context.Context, id uuid.UUID, notes string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(appt.Status, StatusCompleted) {
		return nil, fmt.Errorf("%w: %s to completed", ErrInvalidTransition, appt.Status)
	}

	upd := AppointmentUpdate{}
	if notes != "" {
		upd.SetNotes = true
		upd.Notes = notes
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusApproved, StatusCompleted, upd)
	if err != nil {
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	s.logEvent(ctx, &updated.ID, EventAppointmentCompleted, nil)

	return updated, nil
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return s.repo.GetSlotByID(ctx, id)
}

func (s *Service) ListSlots(ctx context.Context, f SlotFilter) ([]Slot, error) {
	return s.repo.ListSlots(ctx, f)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return s.repo.ListAppointmentsByPatient(ctx, patientID)
}

func (s *Service) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	return s.repo.ListAppointmentsByDoctor(ctx, doctorID)
}

func (s *Service) logEvent(ctx context.Context, appointmentID *uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("marshal event payload", zap.String("event", eventType), zap.Error(err))
		data = nil
	}

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: appointmentID,
		Payload:       data,
		CreatedAt:     nowFunc(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error("insert event log", zap.String("event", eventType), zap.Error(err))
	}
}
