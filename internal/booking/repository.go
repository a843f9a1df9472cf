package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound        = errors.New("slot not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// SlotFilter narrows ListSlots. Zero value means all slots.
type SlotFilter struct {
	DoctorID      *uuid.UUID
	AvailableOnly bool
}

// Repository contains all storage interactions needed by the service.
type Repository interface {
	CreateSlot(ctx context.Context, slot *Slot) error
	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	ListSlots(ctx context.Context, f SlotFilter) ([]Slot, error)
	// SetSlotBooked flips the booked flag and reports ErrSlotNotFound for
	// unknown ids.
	SetSlotBooked(ctx context.Context, id uuid.UUID, booked bool) (*Slot, error)

	CreateAppointment(ctx context.Context, appt *Appointment) error
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)

	// UpdateAppointmentStatus is a compare-and-swap: the update applies only
	// when the stored status equals from, otherwise ErrAppointmentNotFound.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus, upd AppointmentUpdate) (*Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}

// EventLog is an audit record of a store mutation.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// AppointmentUpdate carries the optional field writes that ride along with
// a status change.
type AppointmentUpdate struct {
	SetMeetLink bool
	MeetLink    string
	SetNotes    bool
	Notes       string
}
