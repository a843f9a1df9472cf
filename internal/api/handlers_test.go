package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careloop/clinic-booking/internal/auth"
	"github.com/careloop/clinic-booking/internal/booking"
	redisclient "github.com/careloop/clinic-booking/internal/redis"
)

type testServer struct {
	t      *testing.T
	server *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zap.NewNop()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	authSvc := auth.NewService(auth.NewMemoryRepository(), auth.NewMemorySessionStore(), tokens, logger)
	bookingSvc := booking.NewService(booking.NewMemoryRepository(), redisclient.NewLocalSlotLocker(), logger)

	router := NewRouter(RouterConfig{
		Booking: bookingSvc,
		Auth:    authSvc,
		Logger:  logger,
		Env:     "test",
		Version: "test",
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{t: t, server: srv}
}

func (ts *testServer) do(method, path, token string, body any) (*http.Response, []byte) {
	ts.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.server.URL+path, reader)
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.server.Client().Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(ts.t, err)

	return resp, buf.Bytes()
}

func (ts *testServer) signUpAndIn(email, role, name string) string {
	ts.t.Helper()

	resp, _ := ts.do(http.MethodPost, "/auth/signup", "", SignUpRequest{
		Email:    email,
		Password: "pw123456",
		Role:     role,
		Name:     name,
	})
	require.Equal(ts.t, http.StatusCreated, resp.StatusCode)

	resp, body := ts.do(http.MethodPost, "/auth/signin", "", SignInRequest{
		Email:    email,
		Password: "pw123456",
	})
	require.Equal(ts.t, http.StatusOK, resp.StatusCode)

	var out SignInResponse
	require.NoError(ts.t, json.Unmarshal(body, &out))
	return out.Token
}

func (ts *testServer) createSlot(doctorToken string, online bool) SlotResponse {
	ts.t.Helper()

	resp, body := ts.do(http.MethodPost, "/slots", doctorToken, CreateSlotRequest{
		Date:      "2024-06-01",
		StartTime: "09:00",
		EndTime:   "09:30",
		IsOnline:  online,
	})
	require.Equal(ts.t, http.StatusCreated, resp.StatusCode)

	var slot SlotResponse
	require.NoError(ts.t, json.Unmarshal(body, &slot))
	return slot
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(http.MethodGet, "/slots", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ts.do(http.MethodGet, "/slots", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoleEnforcement(t *testing.T) {
	ts := newTestServer(t)
	patientToken := ts.signUpAndIn("pat@example.com", "patient", "Pat")
	doctorToken := ts.signUpAndIn("doc@example.com", "doctor", "Dr. A")

	// Patients cannot publish slots.
	resp, _ := ts.do(http.MethodPost, "/slots", patientToken, CreateSlotRequest{
		Date: "2024-06-01", StartTime: "09:00", EndTime: "09:30",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Doctors cannot book them.
	slot := ts.createSlot(doctorToken, false)
	resp, _ = ts.do(http.MethodPost, "/appointments", doctorToken, BookSlotRequest{
		SlotID: slot.ID.String(),
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSlotValidation(t *testing.T) {
	ts := newTestServer(t)
	doctorToken := ts.signUpAndIn("doc@example.com", "doctor", "Dr. A")

	resp, _ := ts.do(http.MethodPost, "/slots", doctorToken, CreateSlotRequest{
		StartTime: "09:00", EndTime: "09:30",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing date")

	resp, _ = ts.do(http.MethodPost, "/slots", doctorToken, CreateSlotRequest{
		Date: "2024-06-01", StartTime: "10:00", EndTime: "09:00",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "inverted window")
}

func TestBookingFlow(t *testing.T) {
	ts := newTestServer(t)
	doctorToken := ts.signUpAndIn("doc@example.com", "doctor", "Dr. A")
	patientToken := ts.signUpAndIn("pat@example.com", "patient", "Pat")

	slot := ts.createSlot(doctorToken, true)

	// Patient sees the open slot.
	resp, body := ts.do(http.MethodGet, "/slots?available=true", patientToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var slots []SlotResponse
	require.NoError(t, json.Unmarshal(body, &slots))
	require.Len(t, slots, 1)

	// Books it.
	resp, body = ts.do(http.MethodPost, "/appointments", patientToken, BookSlotRequest{
		SlotID:   slot.ID.String(),
		IsOnline: true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var appt AppointmentResponse
	require.NoError(t, json.Unmarshal(body, &appt))
	assert.Equal(t, "pending", appt.Status)

	// Slot is gone from the available pool; a second booking conflicts.
	resp, body = ts.do(http.MethodGet, "/slots?available=true", patientToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &slots))
	assert.Empty(t, slots)

	resp, _ = ts.do(http.MethodPost, "/appointments", patientToken, BookSlotRequest{
		SlotID: slot.ID.String(),
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Online appointment cannot be approved without a link.
	resp, _ = ts.do(http.MethodPost, "/appointments/"+appt.ID.String()+"/approve", doctorToken, ApproveAppointmentRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = ts.do(http.MethodPost, "/appointments/"+appt.ID.String()+"/approve", doctorToken, ApproveAppointmentRequest{
		MeetLink: "https://meet.example/x",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &appt))
	assert.Equal(t, "approved", appt.Status)
	assert.Equal(t, "https://meet.example/x", appt.MeetLink)

	// Complete with notes.
	resp, body = ts.do(http.MethodPost, "/appointments/"+appt.ID.String()+"/complete", doctorToken, CompleteAppointmentRequest{
		Notes: "Follow-up in 2 weeks",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &appt))
	assert.Equal(t, "completed", appt.Status)
	assert.Equal(t, "Follow-up in 2 weeks", appt.Notes)
}

func TestCancelReturnsSlotToPool(t *testing.T) {
	ts := newTestServer(t)
	doctorToken := ts.signUpAndIn("doc@example.com", "doctor", "Dr. A")
	patientToken := ts.signUpAndIn("pat@example.com", "patient", "Pat")

	slot := ts.createSlot(doctorToken, false)

	resp, body := ts.do(http.MethodPost, "/appointments", patientToken, BookSlotRequest{
		SlotID: slot.ID.String(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var appt AppointmentResponse
	require.NoError(t, json.Unmarshal(body, &appt))

	resp, body = ts.do(http.MethodPost, "/appointments/"+appt.ID.String()+"/cancel", patientToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &appt))
	assert.Equal(t, "cancelled", appt.Status)

	resp, body = ts.do(http.MethodGet, "/slots?available=true", patientToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var slots []SlotResponse
	require.NoError(t, json.Unmarshal(body, &slots))
	require.Len(t, slots, 1)
	assert.Equal(t, slot.ID, slots[0].ID)

	// Approving a cancelled appointment is rejected.
	resp, _ = ts.do(http.MethodPost, "/appointments/"+appt.ID.String()+"/approve", doctorToken, ApproveAppointmentRequest{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestBookUnknownSlot(t *testing.T) {
	ts := newTestServer(t)
	patientToken := ts.signUpAndIn("pat@example.com", "patient", "Pat")

	resp, _ := ts.do(http.MethodPost, "/appointments", patientToken, BookSlotRequest{
		SlotID: "00000000-0000-0000-0000-000000000001",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ts.do(http.MethodPost, "/appointments", patientToken, BookSlotRequest{
		SlotID: "not-a-uuid",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListAppointmentsScopedByRole(t *testing.T) {
	ts := newTestServer(t)
	doctorToken := ts.signUpAndIn("doc@example.com", "doctor", "Dr. A")
	patientToken := ts.signUpAndIn("pat@example.com", "patient", "Pat")
	otherPatient := ts.signUpAndIn("other@example.com", "patient", "Other")

	slot := ts.createSlot(doctorToken, false)
	resp, _ := ts.do(http.MethodPost, "/appointments", patientToken, BookSlotRequest{
		SlotID: slot.ID.String(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var appts []AppointmentResponse

	resp, body := ts.do(http.MethodGet, "/appointments", patientToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &appts))
	assert.Len(t, appts, 1)

	resp, body = ts.do(http.MethodGet, "/appointments", doctorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &appts))
	assert.Len(t, appts, 1)

	resp, body = ts.do(http.MethodGet, "/appointments", otherPatient, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &appts))
	assert.Empty(t, appts)
}

func TestSignOut(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUpAndIn("pat@example.com", "patient", "Pat")

	resp, _ := ts.do(http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(http.MethodPost, "/auth/signout", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ts.do(http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthLiveness(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out LivenessResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "ok", out.Status)
}

func TestHealthReadinessMemoryBackend(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out ReadinessResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "disabled", out.Dependencies["postgres"])
	assert.Equal(t, "disabled", out.Dependencies["redis"])
}
