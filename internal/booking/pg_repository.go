package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.IsOnline,
		&s.IsBooked,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var meetLink, notes *string

	err := row.Scan(
		&a.ID,
		&a.SlotID,
		&a.DoctorID,
		&a.PatientID,
		&a.Status,
		&a.IsOnline,
		&meetLink,
		&notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	if meetLink != nil {
		a.MeetLink = *meetLink
	}
	if notes != nil {
		a.Notes = *notes
	}
	return &a, nil
}

const appointmentColumns = `appointment_id, slot_id, doctor_id, patient_id, status, is_online, google_meet_link, note, created_at, updated_at`

// Interface methods

func (r *PgRepository) CreateSlot(ctx context.Context, slot *Slot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO doctor_availability (id, doctor_id, visit_date, start_time, end_time, is_online, is_booked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, slot.ID, slot.DoctorID, slot.Date, slot.StartTime, slot.EndTime, slot.IsOnline, slot.IsBooked, slot.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	return nil
}

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, visit_date, start_time, end_time, is_online, is_booked, created_at
		FROM doctor_availability
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) ListSlots(ctx context.Context, f SlotFilter) ([]Slot, error) {
	q := `
		SELECT id, doctor_id, visit_date, start_time, end_time, is_online, is_booked, created_at
		FROM doctor_availability
		WHERE 1=1
	`
	args := []any{}

	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		q += fmt.Sprintf(" AND doctor_id = $%d", len(args))
	}
	if f.AvailableOnly {
		q += " AND is_booked = false"
	}
	q += " ORDER BY visit_date, start_time"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) SetSlotBooked(ctx context.Context, id uuid.UUID, booked bool) (*Slot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctor_availability
		SET is_booked = $2
		WHERE id = $1
		RETURNING id, doctor_id, visit_date, start_time, end_time, is_online, is_booked, created_at
	`, id, booked)
	return scanSlot(row)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, appt *Appointment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointments (appointment_id, slot_id, doctor_id, patient_id, status, is_online, google_meet_link, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, $10)
	`, appt.ID, appt.SlotID, appt.DoctorID, appt.PatientID, appt.Status, appt.IsOnline, appt.MeetLink, appt.Notes, appt.CreatedAt, appt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE appointment_id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return r.listAppointments(ctx, "patient_id", patientID)
}

func (r *PgRepository) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	return r.listAppointments(ctx, "doctor_id", doctorID)
}

func (r *PgRepository) listAppointments(ctx context.Context, column string, id uuid.UUID) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE `+column+` = $1
		ORDER BY created_at
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus, upd AppointmentUpdate) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    google_meet_link = CASE WHEN $4 THEN NULLIF($5, '') ELSE google_meet_link END,
		    note = CASE WHEN $6 THEN NULLIF($7, '') ELSE note END,
		    updated_at = now()
		WHERE appointment_id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from, upd.SetMeetLink, upd.MeetLink, upd.SetNotes, upd.Notes)

	return scanAppointment(row)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
