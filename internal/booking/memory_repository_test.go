package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSlot(t *testing.T, repo *MemoryRepository, doctorID uuid.UUID, date, start string, booked bool) Slot {
	t.Helper()
	slot := Slot{
		ID:        uuid.New(),
		DoctorID:  doctorID,
		Date:      date,
		StartTime: start,
		EndTime:   "23:59",
		IsBooked:  booked,
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.CreateSlot(context.Background(), &slot))
	return slot
}

func TestMemoryListSlotsFilters(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	docA := uuid.New()
	docB := uuid.New()

	seedSlot(t, repo, docA, "2024-06-02", "09:00", false)
	seedSlot(t, repo, docA, "2024-06-01", "10:00", true)
	seedSlot(t, repo, docB, "2024-06-01", "09:00", false)

	all, err := repo.ListSlots(ctx, SlotFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	// Ordered by date then start time.
	assert.Equal(t, "2024-06-01", all[0].Date)
	assert.Equal(t, "09:00", all[0].StartTime)

	open, err := repo.ListSlots(ctx, SlotFilter{AvailableOnly: true})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	forA, err := repo.ListSlots(ctx, SlotFilter{DoctorID: &docA})
	require.NoError(t, err)
	assert.Len(t, forA, 2)

	openForA, err := repo.ListSlots(ctx, SlotFilter{DoctorID: &docA, AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, openForA, 1)
	assert.Equal(t, "09:00", openForA[0].StartTime)
}

func TestMemoryUpdateAppointmentStatusCAS(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	appt := Appointment{
		ID:        uuid.New(),
		SlotID:    uuid.New(),
		DoctorID:  uuid.New(),
		PatientID: uuid.New(),
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.CreateAppointment(ctx, &appt))

	// Wrong expected status: the swap must not apply.
	_, err := repo.UpdateAppointmentStatus(ctx, appt.ID, StatusApproved, StatusCompleted, AppointmentUpdate{})
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	got, err := repo.GetAppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	updated, err := repo.UpdateAppointmentStatus(ctx, appt.ID, StatusPending, StatusApproved, AppointmentUpdate{
		SetMeetLink: true,
		MeetLink:    "https://meet.example/y",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, updated.Status)
	assert.Equal(t, "https://meet.example/y", updated.MeetLink)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))
}

func TestMemorySetSlotBookedUnknownID(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.SetSlotBooked(context.Background(), uuid.New(), true)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}
