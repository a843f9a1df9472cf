package booking

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps slots and appointments in maps keyed by id. It is
// the base in-memory variant of the store; a RWMutex covers the handful of
// concurrent readers an HTTP server brings with it.
type MemoryRepository struct {
	mu           sync.RWMutex
	slots        map[uuid.UUID]Slot
	appointments map[uuid.UUID]Appointment
	events       []EventLog
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		slots:        make(map[uuid.UUID]Slot),
		appointments: make(map[uuid.UUID]Appointment),
	}
}

func (r *MemoryRepository) CreateSlot(ctx context.Context, slot *Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.slots[slot.ID] = *slot
	return nil
}

func (r *MemoryRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return &s, nil
}

func (r *MemoryRepository) ListSlots(ctx context.Context, f SlotFilter) ([]Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Slot
	for _, s := range r.slots {
		if f.DoctorID != nil && s.DoctorID != *f.DoctorID {
			continue
		}
		if f.AvailableOnly && s.IsBooked {
			continue
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})

	return out, nil
}

func (r *MemoryRepository) SetSlotBooked(ctx context.Context, id uuid.UUID, booked bool) (*Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	s.IsBooked = booked
	r.slots[id] = s
	return &s, nil
}

func (r *MemoryRepository) CreateAppointment(ctx context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.appointments[appt.ID] = *appt
	return nil
}

func (r *MemoryRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return r.listAppointments(func(a Appointment) bool { return a.PatientID == patientID })
}

func (r *MemoryRepository) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	return r.listAppointments(func(a Appointment) bool { return a.DoctorID == doctorID })
}

func (r *MemoryRepository) listAppointments(keep func(Appointment) bool) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Appointment
	for _, a := range r.appointments {
		if keep(a) {
			out = append(out, a)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *MemoryRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus, upd AppointmentUpdate) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}

	a.Status = to
	if upd.SetMeetLink {
		a.MeetLink = upd.MeetLink
	}
	if upd.SetNotes {
		a.Notes = upd.Notes
	}
	a.UpdatedAt = nowFunc()

	r.appointments[id] = a
	return &a, nil
}

func (r *MemoryRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded event log, oldest first.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]EventLog, len(r.events))
	copy(out, r.events)
	return out
}
