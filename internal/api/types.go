package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/careloop/clinic-booking/internal/booking"
)

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

func toUserResponse(u booking.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
	}
}

type CreateSlotRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsOnline  bool   `json:"is_online"`
}

type SlotResponse struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	IsOnline  bool      `json:"is_online"`
	IsBooked  bool      `json:"is_booked"`
}

func toSlotResponse(s booking.Slot) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		DoctorID:  s.DoctorID,
		Date:      s.Date,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		IsOnline:  s.IsOnline,
		IsBooked:  s.IsBooked,
	}
}

type BookSlotRequest struct {
	SlotID   string `json:"slot_id"`
	IsOnline bool   `json:"is_online"`
}

type ApproveAppointmentRequest struct {
	MeetLink string `json:"meet_link"`
}

type CompleteAppointmentRequest struct {
	Notes string `json:"notes"`
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	SlotID    uuid.UUID `json:"slot_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	PatientID uuid.UUID `json:"patient_id"`
	Status    string    `json:"status"`
	IsOnline  bool      `json:"is_online"`
	MeetLink  string    `json:"meet_link,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toAppointmentResponse(a booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		SlotID:    a.SlotID,
		DoctorID:  a.DoctorID,
		PatientID: a.PatientID,
		Status:    string(a.Status),
		IsOnline:  a.IsOnline,
		MeetLink:  a.MeetLink,
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt,
	}
}
