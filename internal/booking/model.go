package booking

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusApproved  AppointmentStatus = "approved"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// User is the session identity resolved by the auth layer.
type User struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  Role
}

// Slot is a doctor's offered appointment window. Date is "2006-01-02",
// StartTime and EndTime are wall-clock "15:04" with no timezone attached.
type Slot struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Date      string
	StartTime string
	EndTime   string
	IsOnline  bool
	IsBooked  bool
	CreatedAt time.Time
}

// Appointment is a patient's request to occupy a Slot. IsOnline is copied
// from the booking request, not from the slot.
type Appointment struct {
	ID        uuid.UUID
	SlotID    uuid.UUID
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	IsOnline  bool
	MeetLink  string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransition reports whether an appointment may move from one status to
// another. The legal moves are pending→approved, pending→cancelled,
// approved→cancelled and approved→completed; completed and cancelled are
// terminal.
func CanTransition(from, to AppointmentStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusCancelled
	case StatusApproved:
		return to == StatusCancelled || to == StatusCompleted
	default:
		return false
	}
}
